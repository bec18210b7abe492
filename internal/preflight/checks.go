package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase pings the task backend with a 5-second timeout.
func CheckDatabase(ctx context.Context, db Pinger) Result {
	if db == nil {
		return Result{Name: DatabaseCheck, Detail: "not opened"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(checkCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: DatabaseCheck, Detail: "ping timed out"}
		}
		return Result{Name: DatabaseCheck, Detail: fmt.Sprintf("ping failed (%v)", err)}
	}
	return Result{Name: DatabaseCheck, Passed: true, Detail: "Reachable"}
}

// CheckAPIBind validates the API listen address.
func CheckAPIBind(bind string) Result {
	const name = "API bind"
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if _, port, err := net.SplitHostPort(bind); err != nil || port == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: expected host:port)", bind)}
	}
	return Result{Name: name, Passed: true, Detail: bind}
}

// CheckNtfy verifies the ntfy topic answers a poll request.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"

	base := strings.TrimRight(strings.TrimSpace(topic), "/")
	if base == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/json?poll=1&since=latest", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "topic requires authentication"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("poll failed (%d)", resp.StatusCode)}
	}
}
