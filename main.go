package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/user7210unix/lainchan/config"
	"github.com/user7210unix/lainchan/fetch"
	"github.com/user7210unix/lainchan/lainchan"
	"github.com/user7210unix/lainchan/server"
)

const commentPreview = 100

func main() {
	configFile := pflag.StringP("config", "c", "", "YAML config file path")
	apiBase := pflag.StringP("api-base", "a", lainchan.DefaultAPIBase, "imageboard API base URL")
	proxy := pflag.String("proxy", fetch.DefaultPrimaryProxy, "primary CORS proxy prefix")
	fallbackProxy := pflag.String("fallback-proxy", fetch.DefaultFallbackProxy, "fallback CORS proxy prefix")
	origin := pflag.String("origin", "", "Origin header sent to the proxies")
	retries := pflag.IntP("retries", "r", fetch.DefaultRetries, "retries after the first attempt")
	timeout := pflag.DurationP("timeout", "t", fetch.DefaultTimeout, "timeout of a single attempt")
	cacheBackend := pflag.String("cache", config.BackendFile, "cache backend: memory, file or memcache")
	cacheFile := pflag.String("cache-file", "", "cache file path for the file backend")
	memcacheAddr := pflag.String("memcache-addr", "", "memcached address for the memcache backend")
	purge := pflag.Bool("purge-cache", false, "remove expired cache entries before loading")
	metricsAddr := pflag.StringP("metrics-addr", "m", "", "diagnostics listen address, disabled when empty")
	refresh := pflag.Duration("refresh", 0, "reload every interval until interrupted, 0 loads once")
	verbose := pflag.BoolP("verbose", "v", false, "Verbose output")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <board> [thread]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	overrides := map[string]func(){
		"api-base":       func() { c.APIBase = *apiBase },
		"proxy":          func() { c.PrimaryProxy = *proxy },
		"fallback-proxy": func() { c.FallbackProxy = *fallbackProxy },
		"origin":         func() { c.Origin = *origin },
		"retries":        func() { c.Retries = *retries },
		"timeout":        func() { c.Timeout = *timeout },
		"cache":          func() { c.Cache.Backend = *cacheBackend },
		"cache-file":     func() { c.Cache.File = *cacheFile },
		"memcache-addr":  func() { c.Cache.MemcacheAddr = *memcacheAddr },
		"metrics-addr":   func() { c.MetricsAddr = *metricsAddr },
	}
	for name, apply := range overrides {
		if pflag.CommandLine.Changed(name) {
			apply()
		}
	}
	if *verbose {
		c.LogLevel = "debug"
	}
	err = c.Validate()
	if err != nil {
		log.Fatal(errors.Wrap(err, "invalid configuration"))
	}
	log.SetLevel(c.Level())

	board, threadNo, err := parseArgs(pflag.Args())
	if err != nil {
		pflag.Usage()
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(c, *purge)
	if err != nil {
		log.Fatal(err)
	}

	if c.MetricsAddr != "" {
		s, err := server.New(&server.Config{ListenAddr: c.MetricsAddr}, client)
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			if err := s.ListenAndServe(ctx); err != nil {
				log.Error(err)
			}
		}()
	}

	err = run(ctx, os.Stdout, client, board, threadNo, *refresh)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// run loads once, or every refresh interval until ctx is done, and returns
// the error of the last load
func run(ctx context.Context, w io.Writer, client *lainchan.Client, board string, threadNo int64, refresh time.Duration) error {
	for {
		err := load(ctx, w, client, board, threadNo)
		if err != nil {
			log.Error(failureMessage(threadNo, err))
			if d := client.LastFailure(); d != nil {
				log.Debugf("Debug info:\n%s", d)
			}
		}
		if refresh <= 0 {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(refresh):
		}
	}
}

func newClient(c *config.Config, purge bool) (*lainchan.Client, error) {
	kv, err := c.OpenCache()
	if err != nil {
		return nil, err
	}
	if purge {
		n, err := kv.Purge()
		if err != nil {
			log.Warnf("cache purge skipped: %s", err)
		} else {
			log.Infof("Purged %d expired cache entries", n)
		}
	}

	f, err := fetch.New(c.Fetch(), kv, &http.Client{},
		fetch.WithMetrics(fetch.NewMetrics(prometheus.DefaultRegisterer)),
		fetch.WithSignal(fetch.SignalFuncs{
			OnStart:  func() { log.Info("Loading...") },
			OnSettle: func() { log.Debug("Done loading") },
		}),
	)
	if err != nil {
		return nil, err
	}

	return lainchan.NewClient(c.APIBase, f), nil
}

func parseArgs(args []string) (string, int64, error) {
	switch len(args) {
	case 1:
		return args[0], 0, nil
	case 2:
		no, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || no <= 0 {
			return "", 0, errors.Errorf("invalid thread number %q", args[1])
		}
		return args[0], no, nil
	default:
		return "", 0, errors.New("expected a board and an optional thread number")
	}
}

func load(ctx context.Context, w io.Writer, client *lainchan.Client, board string, threadNo int64) error {
	if threadNo == 0 {
		catalog, err := client.Catalog(ctx, board)
		if err != nil {
			return err
		}
		printCatalog(w, client.APIBase(), board, catalog)
		return nil
	}

	thread, err := client.Thread(ctx, board, threadNo)
	if err != nil {
		return err
	}
	printThread(w, client.APIBase(), board, threadNo, thread)
	return nil
}

func printCatalog(w io.Writer, apiBase, board string, catalog lainchan.Catalog) {
	for _, t := range catalog.Threads() {
		fmt.Fprintf(w, "#%d  %s\n", t.No, t.Subject())
		if com := t.Comment(); t.Com != "" {
			fmt.Fprintf(w, "    %s\n", lainchan.Truncate(com, commentPreview))
		}
		if img := lainchan.ImageURL(apiBase, board, &t); img != "" {
			fmt.Fprintf(w, "    %s\n", img)
		}
		fmt.Fprintf(w, "    Post #%d | Replies: %d\n\n", t.No, t.Replies)
	}
}

func printThread(w io.Writer, apiBase, board string, no int64, thread *lainchan.Thread) {
	fmt.Fprintf(w, "%s\n\n", thread.Title(no))
	for i := range thread.Posts {
		p := &thread.Posts[i]
		if img := lainchan.ImageURL(apiBase, board, p); img != "" {
			fmt.Fprintf(w, "[%s]\n", img)
		}
		fmt.Fprintf(w, "%s\n", p.Comment())
		fmt.Fprintf(w, "Post #%d\n\n", p.No)
	}
}

func failureMessage(threadNo int64, err error) string {
	what := "threads"
	if threadNo != 0 {
		what = "thread"
	}
	return fmt.Sprintf("Failed to load %s (%s). The CORS proxy may be down or require access. "+
		"Visit https://cors-anywhere.herokuapp.com to request temporary access, then try again.", what, err)
}
