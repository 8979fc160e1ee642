package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/model"
	"github.com/Zohair23/price-comparison-engine/internal/store"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

// AlertService owns price-alert rules: an alert triggers when the latest
// price at any retailer (or its target retailer, when set) is at or below
// the threshold.
type AlertService struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewAlertService creates the alert service
func NewAlertService(st store.Store, log *zap.Logger) *AlertService {
	return &AlertService{store: st, log: log, now: time.Now}
}

// Create registers an alert for an existing product
func (s *AlertService) Create(ctx context.Context, productID uint, threshold float64, targetRetailer string) (*model.Alert, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	alert := &model.Alert{
		ProductID:      productID,
		PriceThreshold: threshold,
		TargetRetailer: targetRetailer,
		IsActive:       true,
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Active returns all active alerts
func (s *AlertService) Active(ctx context.Context) ([]model.Alert, error) {
	return s.store.ActiveAlerts(ctx)
}

// Deactivate turns an alert off
func (s *AlertService) Deactivate(ctx context.Context, id uint) (*model.Alert, error) {
	return s.store.DeactivateAlert(ctx, id)
}

// Check sweeps active alerts against the latest price per retailer and
// marks the ones whose threshold has been reached. Returns the alerts
// triggered by this sweep.
func (s *AlertService) Check(ctx context.Context) ([]model.Alert, error) {
	active, err := s.store.ActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}

	var triggered []model.Alert
	for i := range active {
		alert := &active[i]
		if alert.Triggered {
			continue
		}

		records, err := s.store.PricesForProduct(ctx, alert.ProductID)
		if err != nil {
			s.log.Warn("Failed to load prices for alert",
				zap.Uint("alert_id", alert.ID),
				zap.Uint("product_id", alert.ProductID),
				zap.Error(err))
			continue
		}

		for _, record := range model.LatestPerRetailer(records) {
			if alert.TargetRetailer != "" && record.Retailer != alert.TargetRetailer {
				continue
			}
			if record.Price <= alert.PriceThreshold {
				now := s.now().UTC()
				alert.Triggered = true
				alert.TriggeredAt = &now
				if err := s.store.SaveAlert(ctx, alert); err != nil {
					s.log.Warn("Failed to mark alert triggered",
						zap.Uint("alert_id", alert.ID),
						zap.Error(err))
					break
				}
				s.log.Info("Price alert triggered",
					zap.Uint("alert_id", alert.ID),
					zap.Uint("product_id", alert.ProductID),
					zap.String("retailer", record.Retailer),
					zap.Float64("price", record.Price),
					zap.Float64("threshold", alert.PriceThreshold))
				prometheus.RecordAlertTriggered()
				triggered = append(triggered, *alert)
				break
			}
		}
	}

	return triggered, nil
}
