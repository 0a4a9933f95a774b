package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"easyfinances/internal/log"
	"easyfinances/internal/ports"
)

// SessionService ties authentication to the notification session state.
type SessionService struct {
	auth       ports.Authenticator
	reconciler *NotificationReconciler
	onLogout   []func()
}

// NewSessionService builds the service. onLogout hooks run after a logout,
// e.g. to drop cached reads of the previous user.
func NewSessionService(auth ports.Authenticator, reconciler *NotificationReconciler, onLogout ...func()) *SessionService {
	return &SessionService{auth: auth, reconciler: reconciler, onLogout: onLogout}
}

func (s *SessionService) Login(ctx context.Context, username, password string) error {
	if err := s.auth.Login(ctx, username, password); err != nil {
		return err
	}
	// a stale dismissal from an unfinished session must not hide the popup
	if err := s.reconciler.Logout(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to reset notification session", log.FieldError, err)
	}
	return nil
}

// Logout forgets the token and re-arms the reminder popup. Acknowledged
// notifications stay acknowledged.
func (s *SessionService) Logout(ctx context.Context) error {
	var errList []error
	if err := s.auth.Logout(ctx); err != nil {
		errList = append(errList, fmt.Errorf("auth: %w", err))
	}
	if err := s.reconciler.Logout(ctx); err != nil {
		errList = append(errList, fmt.Errorf("notifications: %w", err))
	}
	for _, hook := range s.onLogout {
		hook()
	}
	slog.InfoContext(ctx, "Logged out", log.FieldOperation, log.OpLogout, "errors", len(errList))
	return errors.Join(errList...)
}
