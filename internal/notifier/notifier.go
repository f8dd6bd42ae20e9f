package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a text message to the configured chat destination.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// Session is the long-lived chat connection. Ready is closed once the
// session can deliver messages; Run blocks until ctx is cancelled and only
// returns an error when the session could not be established.
type Session interface {
	Run(ctx context.Context) error
	Ready() <-chan struct{}
}

// DeliveryError is a message the chat platform refused.
type DeliveryError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s API error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

// LogNotifier writes alerts to the log instead of a chat (dry-run mode).
type LogNotifier struct {
	Log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(_ context.Context, text string) error {
	n.Log.WithField("notifier", "log").Info(text)
	return nil
}

// LocalSession is a Session that is ready immediately.
type LocalSession struct {
	ready chan struct{}
}

func NewLocalSession() *LocalSession {
	s := &LocalSession{ready: make(chan struct{})}
	close(s.ready)
	return s
}

func (s *LocalSession) Ready() <-chan struct{} { return s.ready }

func (s *LocalSession) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
