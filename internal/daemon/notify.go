package daemon

import (
	"fmt"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells systemd the hub accepts viewers. It reports false when
// not running under a Type=notify unit.
func NotifyReady() (bool, error) {
	return sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
}

// NotifyStopping tells systemd shutdown has begun
func NotifyStopping() (bool, error) {
	return sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)
}

// NotifyStatus publishes a one-line status shown by systemctl status
func NotifyStatus(format string, args ...interface{}) (bool, error) {
	return sddaemon.SdNotify(false, "STATUS="+fmt.Sprintf(format, args...))
}
