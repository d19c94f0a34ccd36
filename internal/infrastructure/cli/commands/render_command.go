package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/puremath/internal/app"
	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/filesystem"
)

// NewRenderCommand creates the render command, which draws a solution file
// to PNG and/or PDF without contacting Telegram or the model.
func NewRenderCommand(container *app.Container) *cobra.Command {
	var (
		input   string
		pngPath string
		pdfPath string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render solution text to PNG and/or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pngPath == "" && pdfPath == "" {
				return errors.New(ErrRenderOutputRequired)
			}
			text, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			return renderFiles(cmd.OutOrStdout(), container, string(text), pngPath, pdfPath)
		},
	}

	cmd.Flags().StringVar(&input, "in", StdinPath, "Solution text file (- for stdin)")
	cmd.Flags().StringVar(&pngPath, "png", "", "Write the image to this path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Write the document to this path")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == StdinPath {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(filesystem.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// renderFiles draws the requested artifacts and writes them to disk.
func renderFiles(out io.Writer, container *app.Container, text, pngPath, pdfPath string) error {
	if container.Renderer == nil {
		return errors.New(ErrRendererUnavailable)
	}

	outputs := []struct {
		path   string
		render func(string) (domain.Artifact, error)
	}{
		{pngPath, container.Renderer.RenderImage},
		{pdfPath, container.Renderer.RenderDocument},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		art, err := o.render(text)
		if err != nil {
			return err
		}
		dest := filesystem.ExpandPath(o.path)
		if err := filesystem.WriteFileAtomic(dest, art.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "%s: %d bytes -> %s\n", art.MIMEType, len(art.Data), dest)
	}
	return nil
}
