package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/doeshing/puremath/internal/domain"
)

var errQuestionTimeout = errors.New("question timed out")

// Question outcomes, used for metrics and logs.
const (
	outcomeSuccess     = "success"
	outcomePartial     = "partial"
	outcomeUnavailable = "unavailable"
	outcomeTimeout     = "timeout"
	outcomeRenderError = "render_failed"
	outcomeError       = "error"
)

// handleQuestion answers one admitted question: solve under a timeout,
// render both artifacts, deliver them and report the status.
func (s *Service) handleQuestion(ctx context.Context, msg *domain.InboundMessage) {
	started := s.now()
	fields := map[string]interface{}{
		"request_id": uuid.NewString(),
		"chat_id":    msg.ChatID,
		"user_id":    msg.From.ID,
	}
	metrics := s.metrics()
	metrics.WorkersBusy(1)
	outcome := outcomeError
	defer func() {
		metrics.WorkersBusy(-1)
		metrics.QuestionCompleted(outcome, s.now().Sub(started))
	}()
	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeError
			s.Logger.Error("question handling panicked", fmt.Errorf("panic: %v", r), fields)
			s.reply(ctx, msg, msgFailure)
		}
	}()

	if err := s.Messenger.SendChatAction(ctx, msg.ChatID, domain.ChatActionTyping); err != nil {
		s.Logger.Debug("typing indicator failed", map[string]interface{}{"chat_id": msg.ChatID, "error": err.Error()})
	}

	question := strings.TrimSpace(msg.Text)
	answer, err := s.solve(ctx, question)
	if err != nil {
		outcome = outcomeUnavailable
		if errors.Is(err, errQuestionTimeout) {
			outcome = outcomeTimeout
		}
		if !errors.Is(err, domain.ErrNotAvailable) && !errors.Is(err, errQuestionTimeout) {
			outcome = outcomeError
			s.Logger.Error("solver failed", err, fields)
			s.reply(ctx, msg, msgFailure)
			return
		}
		s.Logger.Warn("no usable solution", merge(fields, map[string]interface{}{"reason": err.Error()}))
		s.reply(ctx, msg, msgNoSolution)
		return
	}

	image, document, err := s.render(answer)
	if err != nil {
		outcome = outcomeRenderError
		s.Logger.Error("rendering failed", err, fields)
		s.reply(ctx, msg, msgFailure)
		return
	}

	delivered := s.deliverImage(ctx, msg, image, fields)
	delivered = s.deliverDocument(ctx, msg, document, fields) && delivered

	elapsed := s.now().Sub(started)
	status := successText(elapsed)
	outcome = outcomeSuccess
	if !delivered {
		status = msgPartial
		outcome = outcomePartial
	}

	record := domain.NewQuestionLogRecord(s.now(), msg.ChatID, msg.From, question, answer)
	if err := s.QuestionLog.Append(record); err != nil {
		s.Logger.Error("question log append failed", err, fields)
	}

	s.Logger.Info("question answered", merge(fields, map[string]interface{}{
		"outcome": outcome,
		"elapsed": elapsed.String(),
	}))
	s.reply(ctx, msg, status)
}

// solve waits at most the question timeout for the solver. A call that
// outlives the wait keeps running under its own deadline so its answer can
// still reach the cache; Run waits for it on shutdown.
func (s *Service) solve(ctx context.Context, question string) (string, error) {
	type result struct {
		answer string
		err    error
	}
	done := make(chan result, 1)

	callCtx, cancel := context.WithTimeout(ctx, s.modelTimeout())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("solver panic: %v", r)}
			}
		}()
		answer, err := s.Solver.Answer(callCtx, question)
		done <- result{answer: answer, err: err}
	}()

	timer := time.NewTimer(s.questionTimeout())
	defer timer.Stop()
	select {
	case r := <-done:
		return r.answer, r.err
	case <-timer.C:
		return "", errQuestionTimeout
	}
}

// render produces the image and the document concurrently and joins on both.
func (s *Service) render(answer string) (domain.Artifact, domain.Artifact, error) {
	var (
		g        errgroup.Group
		image    domain.Artifact
		document domain.Artifact
	)
	g.Go(func() (err error) {
		defer recoverAs(&err)
		image, err = s.Renderer.RenderImage(answer)
		return err
	})
	g.Go(func() (err error) {
		defer recoverAs(&err)
		document, err = s.Renderer.RenderDocument(answer)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Artifact{}, domain.Artifact{}, err
	}
	return image, document, nil
}

func (s *Service) deliverImage(ctx context.Context, msg *domain.InboundMessage, image domain.Artifact, fields map[string]interface{}) bool {
	err := s.Messenger.SendPhoto(ctx, msg.ChatID, image, captionImage, msg.MessageID)
	return s.delivered("image", err, fields)
}

func (s *Service) deliverDocument(ctx context.Context, msg *domain.InboundMessage, document domain.Artifact, fields map[string]interface{}) bool {
	err := s.Messenger.SendDocument(ctx, msg.ChatID, document, captionDocument, msg.MessageID)
	return s.delivered("document", err, fields)
}

// delivered records the upload outcome for kind.
func (s *Service) delivered(kind string, err error, fields map[string]interface{}) bool {
	s.metrics().ArtifactDelivered(kind, err == nil)
	if err != nil {
		s.Logger.Error("artifact delivery failed", err, merge(fields, map[string]interface{}{"kind": kind}))
		return false
	}
	return true
}

func recoverAs(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", domain.ErrRenderFailed, r)
	}
}

func merge(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
