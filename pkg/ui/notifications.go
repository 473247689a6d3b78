package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier prints run events and optionally mirrors them to the desktop
type Notifier struct {
	sender  NotificationSender
	desktop bool
}

// NewNotifier picks a sender for the current platform. kind is the
// configured notification type: "desktop", "terminal" or "none".
func NewNotifier(kind string) *Notifier {
	n := &Notifier{}
	switch strings.ToLower(kind) {
	case "none":
		return nil
	case "desktop":
		n.desktop = true
	}

	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	}
	return n
}

// NewNotifierWithSender is used by tests to capture notifications
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender, desktop: true}
}

func (n *Notifier) send(title, message string) {
	if n == nil {
		return
	}
	if n.desktop && n.sender != nil {
		// best effort, a missing notify-send must not fail the run
		_ = n.sender.Send(title, message)
	}
}

// SendSuccess announces a completed run
func (n *Notifier) SendSuccess(title, message string) {
	if n == nil {
		return
	}
	PrintSuccess(fmt.Sprintf("%s: %s", title, message))
	n.send(title, message)
}

// SendError announces a failed run or failed downloads
func (n *Notifier) SendError(title, message string) {
	if n == nil {
		return
	}
	PrintError(title, message)
	n.send(title, message)
}
