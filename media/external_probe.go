package media

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExternalProber shells out to ImageMagick's identify
type ExternalProber struct {
	Timeout time.Duration

	once    sync.Once
	command []string
	run     runFunc
}

func NewExternalProber() *ExternalProber {
	return &ExternalProber{Timeout: 15 * time.Second, run: execOutput}
}

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (p *ExternalProber) resolve() {
	p.once.Do(func() {
		if p.command != nil {
			return
		}
		if _, err := exec.LookPath("magick"); err == nil {
			p.command = []string{"magick", "identify"}
			return
		}
		if _, err := exec.LookPath("identify"); err == nil {
			p.command = []string{"identify"}
			return
		}
		log.Printf("media.probe: Warning - ImageMagick not found on PATH, dimensions will be skipped")
		p.command = []string{}
	})
}

func (p *ExternalProber) Probe(path string) (Dimensions, bool) {
	p.resolve()
	if len(p.command) == 0 {
		return Dimensions{}, false
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := append(append([]string{}, p.command[1:]...), "-format", "%w %h", path+"[0]")
	out, err := p.run(ctx, p.command[0], args...)
	if err != nil {
		log.Printf("media.probe: Warning - identify failed for %s: %v", path, err)
		return Dimensions{}, false
	}

	dims, err := parseIdentifyOutput(string(out))
	if err != nil {
		log.Printf("media.probe: Warning - %v", err)
		return Dimensions{}, false
	}
	return dims, true
}

func parseIdentifyOutput(out string) (Dimensions, error) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return Dimensions{}, fmt.Errorf("unexpected identify output %q", out)
	}
	w, errW := strconv.Atoi(fields[0])
	h, errH := strconv.Atoi(fields[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Dimensions{}, fmt.Errorf("unexpected identify output %q", out)
	}
	return Dimensions{Width: w, Height: h}, nil
}
