package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

const recordTimeout = 2 * time.Second

// Recorder appends audit entries on behalf of the booking flow.
// A failed append is logged and otherwise ignored.
type Recorder struct {
	repo   Repository
	logger *logrus.Logger
}

func NewRecorder(repo Repository, logger *logrus.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}

	// The entry outlives a cancelled request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := r.repo.Append(ctx, &e); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"kind":    e.Kind,
			"user_id": e.UserID,
			"slot_id": e.SlotID,
		}).Warn("audit append failed")
	}
}

// Client summarises a User-Agent header as "<browser> <version> on <os>".
func Client(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := user_agent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	name, version := ua.Browser()
	os := ua.OS()
	switch {
	case name == "":
		return userAgent
	case os == "":
		return fmt.Sprintf("%s %s", name, version)
	default:
		return fmt.Sprintf("%s %s on %s", name, version, os)
	}
}
