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

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/convert"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
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

// CheckTrackList verifies that the track list loads and names at least one track.
func CheckTrackList(ctx context.Context, path string) Result {
	const name = "Track list"
	names, err := catalog.New(catalog.FileSource{Path: path}, nil).Names(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(names) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no track names)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d tracks (%s)", len(names), path)}
}

// CheckConverter verifies that the conversion endpoint answers HTTP. Any
// response counts as reachable; the endpoint rejects requests without
// parameters.
func CheckConverter(ctx context.Context, endpoint string, doer convert.HTTPDoer) Result {
	const name = "Converter"
	if doer == nil {
		doer = &http.Client{Timeout: 5 * time.Second}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("invalid endpoint (%v)", err)}
	}
	resp, err := doer.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: summarizeNetworkError(err)}
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (status %d)", endpoint, resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (reachable)", endpoint)}
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (endpoint unreachable)"
	}
	return err.Error()
}
