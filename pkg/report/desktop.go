package report

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// commandRunner runs an external program
type commandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// DesktopNotifier shows the report headline as a desktop notification
type DesktopNotifier struct {
	goos string
	run  commandRunner
}

// NewDesktopNotifier creates a notifier for the current platform
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{goos: runtime.GOOS, run: runCommand}
}

// Name identifies the sender in logs
func (d *DesktopNotifier) Name() string {
	return "desktop"
}

// Send shows r's headline using the platform's notification tool
func (d *DesktopNotifier) Send(ctx context.Context, r *Report) error {
	title := "followsync"
	if r.Username != "" {
		title = fmt.Sprintf("followsync: %s", r.Username)
	}
	message := r.Title()

	switch d.goos {
	case "linux":
		return d.run(ctx, "notify-send", title, message)
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return d.run(ctx, "osascript", "-e", script)
	case "windows":
		script := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
$doc.LoadXml('<toast><visual><binding template="ToastText02"><text id="1">%s</text><text id="2">%s</text></binding></visual></toast>')
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("followsync").Show([Windows.UI.Notifications.ToastNotification]::new($doc))
`, xmlEscape(title), xmlEscape(message))
		return d.run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	default:
		return fmt.Errorf("desktop notifications are not supported on %s", d.goos)
	}
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&apos;", `"`, "&quot;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
