package jobs

import (
	"log/slog"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

func (m *Manager) janitor() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep removes terminal jobs that finished more than maxAge ago
func (m *Manager) Sweep() int {
	if m.maxAge <= 0 {
		return 0
	}

	cutoff := m.now().Add(-m.maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.removeLocked(func(j *domain.Job) bool {
		return j.Status.IsTerminal() && j.EndTime != nil && j.EndTime.Before(cutoff)
	}, -1)
	if removed > 0 {
		m.logger.Info("Expired jobs swept",
			slog.Int("count", removed),
			slog.Duration("max_age", m.maxAge),
		)
	}
	return removed
}
