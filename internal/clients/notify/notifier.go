package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogNotifier is the default notification sink: it records every message
// instead of delivering it. Deployments with a real mail or SMS provider
// substitute their own implementation of the same method.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, template string, context map[string]string) error {
	log.WithFields(log.Fields{"template": template, "context": context}).
		Info("notification sent")
	return nil
}
