package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
)

// Press applies a single key-press and fires the lifecycle hooks.
//
// Unknown key kinds are rejected with domain.ErrUnknownKey and leave the session
// untouched. Calculation failures are not returned: they surface as the error
// sentinel in the preview and as an ErrorEvent.
func (m *Machine) Press(ctx context.Context, key domain.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := m.Mode()
	if err := m.apply(key); err != nil {
		return err
	}
	to := m.Mode()

	m.logger.Debug("key processed",
		"session_id", m.sessionID,
		"key", key.String(),
		"from", from,
		"to", to,
		"buffer", m.buf.String(),
		"preview", m.preview,
	)

	m.emitKey(ctx, key, from, to)
	if m.finalized != nil {
		m.emitFinalize(ctx, m.finalized)
	}
	if m.lastErr != nil {
		m.emitError(ctx, key, m.lastErr)
	}
	return nil
}

func (m *Machine) apply(key domain.Key) error {
	switch key.Kind {
	case domain.KeyDigit, domain.KeyDecimal:
		return m.InputDigitOrDecimal(key.Value)
	case domain.KeyOperator:
		return m.InputOperator(key.Value)
	case domain.KeyParen:
		return m.InputParenthesis(key.Value)
	case domain.KeyFunction:
		return m.ApplyFunction(key.Value)
	case domain.KeyClear:
		m.Clear()
	case domain.KeyDelete:
		m.Delete()
	case domain.KeyEquals:
		m.Finalize()
	default:
		return fmt.Errorf("%w: kind %q", domain.ErrUnknownKey, key.Kind)
	}
	return nil
}

func (m *Machine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now().UTC(),
		Type:      t,
		SessionID: m.sessionID,
	}
}

func (m *Machine) emitKey(ctx context.Context, key domain.Key, from, to domain.Mode) {
	if m.hooks.OnKey == nil {
		return
	}
	m.hooks.OnKey(ctx, &domain.KeyEvent{
		EventBase: m.base(domain.EventKeyPress),
		Key:       key,
		From:      from,
		To:        to,
		Buffer:    m.buf.String(),
		Preview:   m.preview,
	})
}

func (m *Machine) emitFinalize(ctx context.Context, ev *domain.FinalizeEvent) {
	if m.hooks.OnFinalize == nil {
		return
	}
	ev.EventBase = m.base(domain.EventFinalize)
	m.hooks.OnFinalize(ctx, ev)
}

func (m *Machine) emitError(ctx context.Context, key domain.Key, err error) {
	m.logger.Debug("calculation failed", "session_id", m.sessionID, "key", key.String(), "err", err)
	if m.hooks.OnError == nil {
		return
	}
	m.hooks.OnError(ctx, &domain.ErrorEvent{
		EventBase: m.base(domain.EventError),
		Key:       key,
		Err:       err,
	})
}
