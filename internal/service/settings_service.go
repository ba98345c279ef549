package service

import (
	"context"
	"fmt"
	"strings"

	"auratrade/internal/domain"
	"auratrade/internal/session"

	"go.opentelemetry.io/otel/trace"
)

// SettingsService manages the trading pair whitelist and price alerts.
type SettingsService struct {
	tracer trace.Tracer
	store  *session.Store
}

func NewSettingsService(tracer trace.Tracer, store *session.Store) *SettingsService {
	return &SettingsService{tracer: tracer, store: store}
}

func normalizePair(pair string) string {
	return strings.ToUpper(strings.TrimSpace(pair))
}

// AddWhitelistPair enables a pair for bot deployment. Blank and duplicate
// pairs are ignored and reported as false.
func (s *SettingsService) AddWhitelistPair(ctx context.Context, pair string) (domain.WhitelistPair, bool, error) {
	_, span := s.tracer.Start(ctx, "settings-service.add-whitelist-pair")
	defer span.End()

	pair = normalizePair(pair)
	if pair == "" {
		return domain.WhitelistPair{}, false, nil
	}

	var added domain.WhitelistPair
	var ok bool
	_, err := s.store.Mutate(func(tx *session.Tx) {
		for _, w := range tx.State.Whitelist {
			if w.Pair == pair {
				added = w
				return
			}
		}
		added = domain.WhitelistPair{ID: "w-" + tx.NewID(), Pair: pair, Active: true}
		tx.State.Whitelist = append(session.Clone(tx.State.Whitelist), added)
		tx.Audit("Whitelist updated: "+pair+" added", domain.SeverityLow)
		ok = true
	})
	return added, ok, err
}

func (s *SettingsService) ToggleWhitelistPair(ctx context.Context, id string) (domain.WhitelistPair, error) {
	_, span := s.tracer.Start(ctx, "settings-service.toggle-whitelist-pair")
	defer span.End()

	var out domain.WhitelistPair
	found := false
	_, err := s.store.Mutate(func(tx *session.Tx) {
		for i, w := range tx.State.Whitelist {
			if w.ID != id {
				continue
			}
			w.Active = !w.Active
			tx.State.Whitelist = session.ReplaceAt(tx.State.Whitelist, i, w)
			out, found = w, true
			return
		}
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, ErrNotFound
	}
	return out, nil
}

func (s *SettingsService) DeleteWhitelistPair(ctx context.Context, id string) error {
	_, span := s.tracer.Start(ctx, "settings-service.delete-whitelist-pair")
	defer span.End()

	found := false
	_, err := s.store.Mutate(func(tx *session.Tx) {
		tx.State.Whitelist = session.RemoveWhere(tx.State.Whitelist, func(w domain.WhitelistPair) bool {
			if w.ID == id {
				found = true
				tx.Audit("Whitelist updated: "+w.Pair+" removed", domain.SeverityMedium)
				return true
			}
			return false
		})
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// AddAlert registers a price alert. Blank pairs, non-positive targets and
// unknown conditions are ignored and reported as false.
func (s *SettingsService) AddAlert(ctx context.Context, pair string, target float64, cond domain.AlertCondition) (domain.PriceAlert, bool, error) {
	_, span := s.tracer.Start(ctx, "settings-service.add-alert")
	defer span.End()

	pair = normalizePair(pair)
	if pair == "" || !validAmount(target) || !cond.IsValid() {
		return domain.PriceAlert{}, false, nil
	}

	var added domain.PriceAlert
	_, err := s.store.Mutate(func(tx *session.Tx) {
		added = domain.PriceAlert{
			ID:          "alert-" + tx.NewID(),
			Pair:        pair,
			TargetPrice: target,
			Condition:   cond,
			Active:      true,
		}
		tx.State.Alerts = append(session.Clone(tx.State.Alerts), added)
		tx.Notify("Alert Armed", fmt.Sprintf("%s %s %s", pair, cond, formatAmount(target)), domain.NotifyInfo)
	})
	if err != nil {
		return domain.PriceAlert{}, false, err
	}
	return added, true, nil
}

func (s *SettingsService) ToggleAlert(ctx context.Context, id string) (domain.PriceAlert, error) {
	_, span := s.tracer.Start(ctx, "settings-service.toggle-alert")
	defer span.End()

	var out domain.PriceAlert
	found := false
	_, err := s.store.Mutate(func(tx *session.Tx) {
		for i, a := range tx.State.Alerts {
			if a.ID != id {
				continue
			}
			a.Active = !a.Active
			tx.State.Alerts = session.ReplaceAt(tx.State.Alerts, i, a)
			out, found = a, true
			return
		}
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, ErrNotFound
	}
	return out, nil
}

func (s *SettingsService) DeleteAlert(ctx context.Context, id string) error {
	_, span := s.tracer.Start(ctx, "settings-service.delete-alert")
	defer span.End()

	found := false
	_, err := s.store.Mutate(func(tx *session.Tx) {
		tx.State.Alerts = session.RemoveWhere(tx.State.Alerts, func(a domain.PriceAlert) bool {
			if a.ID == id {
				found = true
				return true
			}
			return false
		})
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
