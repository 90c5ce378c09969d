// Package jobs runs background maintenance over the app library.
package jobs

import (
	"context"
	"time"

	"AppMovin/storage"

	"github.com/sirupsen/logrus"
)

type Auditor interface {
	Audit(ctx context.Context) (storage.AuditReport, error)
}

// RunAudit performs one audit pass and logs what it found.
func RunAudit(ctx context.Context, auditor Auditor) (storage.AuditReport, error) {
	report, err := auditor.Audit(ctx)
	if err != nil {
		logrus.WithError(err).Error("[JOB] Library audit failed")
		return report, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"path":    report.StoragePath,
		"indexed": report.Indexed,
		"missing": len(report.Missing),
		"stray":   len(report.Stray),
	})
	if report.Clean() {
		logger.Info("[JOB] Library audit clean")
	} else {
		logger.WithFields(logrus.Fields{
			"missing_ids": report.Missing,
			"stray_files": report.Stray,
		}).Warn("[JOB] Library audit found drift")
	}
	return report, nil
}

// StartAuditJob audits once immediately and then on every tick until ctx
// is done. A non-positive interval only runs the first pass.
func StartAuditJob(ctx context.Context, auditor Auditor, interval time.Duration) {
	RunAudit(ctx, auditor)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunAudit(ctx, auditor)
		}
	}
}
