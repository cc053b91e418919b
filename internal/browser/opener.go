package browser

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/moviealert/internal/domain"
)

var commandContext = exec.CommandContext

// Opener opens URLs with the host's URL handler.
type Opener struct {
	log  zerolog.Logger
	name string
	args []string
}

var _ domain.URLOpener = (*Opener)(nil)

// NewOpener returns an Opener for the current platform. A non-empty command
// overrides the platform default; it is split on whitespace and the URL is
// appended as the last argument.
func NewOpener(log zerolog.Logger, command string) (*Opener, error) {
	name, args, err := resolveCommand(runtime.GOOS, command)
	if err != nil {
		return nil, err
	}

	return &Opener{
		log:  log.With().Str("module", "browser").Logger(),
		name: name,
		args: args,
	}, nil
}

func resolveCommand(goos, command string) (string, []string, error) {
	if fields := strings.Fields(command); len(fields) > 0 {
		return fields[0], fields[1:], nil
	}

	switch goos {
	case "darwin":
		return "open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return "xdg-open", nil, nil
	default:
		return "", nil, domain.Wrap(domain.ErrConfiguration, "no default browser command for "+goos+", set browser.command", nil)
	}
}

// Open runs the browser command for url and waits for it to exit.
func (o *Opener) Open(ctx context.Context, url string) error {
	args := append(append([]string(nil), o.args...), url)
	cmd := commandContext(ctx, o.name, args...) //nolint:gosec

	o.log.Debug().Str("command", o.name).Str("url", url).Msg("opening url")

	output, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(output)); msg != "" {
			err = errors.Wrap(err, msg)
		}
		return domain.Wrap(domain.ErrSideEffect, o.name, err)
	}
	return nil
}

// Recorder collects URLs instead of opening them.
type Recorder struct {
	URLs []string
}

var _ domain.URLOpener = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Open(_ context.Context, url string) error {
	r.URLs = append(r.URLs, url)
	return nil
}
