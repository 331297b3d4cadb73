// healthprobe is a lean fasthttp client that polls a playbackd instance's
// health endpoints; useful as a container healthcheck or a load-test canary
// without pulling in the full net/http client stack.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	target := flag.String("target", "http://127.0.0.1:8080", "playbackd base URL")
	path := flag.String("path", "/readyz", "probe path (/healthz or /readyz)")
	timeout := flag.Duration("timeout", 2*time.Second, "per-request timeout")
	interval := flag.Duration("interval", 0, "poll interval; 0 probes once and exits")
	flag.Parse()

	c := &fasthttp.Client{
		Name:         "playbackd-healthprobe",
		ReadTimeout:  *timeout,
		WriteTimeout: *timeout,
	}

	probe := func() int {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)
		req.SetRequestURI(*target + *path)
		if err := c.DoTimeout(req, resp, *timeout); err != nil {
			fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
			return 1
		}
		if resp.StatusCode() != fasthttp.StatusOK {
			fmt.Fprintf(os.Stderr, "unhealthy: status=%d body=%s\n", resp.StatusCode(), resp.Body())
			return 1
		}
		fmt.Printf("ok: %s\n", resp.Body())
		return 0
	}

	if *interval <= 0 {
		os.Exit(probe())
	}
	for {
		probe()
		time.Sleep(*interval)
	}
}
