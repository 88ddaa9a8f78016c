package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yungbote/codecompanion-backend/internal/notifyclient"
	"github.com/yungbote/codecompanion-backend/internal/platform/envutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/platform/shutdown"
)

func main() {
	var (
		baseURL   string
		token     string
		filter    string
		reconnect bool
	)
	flag.StringVar(&baseURL, "api", envutil.String("NOTIFY_API_URL", "http://localhost:5000/api"), "notification API base url")
	flag.StringVar(&token, "token", envutil.String("NOTIFY_TOKEN", ""), "bearer token (or NOTIFY_TOKEN)")
	flag.StringVar(&filter, "filter", string(notifyclient.FilterAll), "All | Unread | Patterns | Problems | Submissions")
	flag.BoolVar(&reconnect, "reconnect", false, "reconnect with backoff when the stream drops")
	flag.Parse()

	f, err := notifyclient.ParseFilter(filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "no token: pass -token or set NOTIFY_TOKEN")
		os.Exit(2)
	}

	log, err := logger.New(envutil.String("LOG_MODE", "production"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	var printed bool
	client := notifyclient.New(log, baseURL, token)
	consumer := notifyclient.NewConsumer(log, client, nil,
		notifyclient.WithOnCatchUp(func(list []notifyclient.Notification) {
			if printed {
				return
			}
			printed = true
			printHistory(os.Stdout, time.Now(), f.Apply(list))
			fmt.Fprintf(os.Stdout, "-- %d unread, watching for new notifications --\n", len(notifyclient.FilterUnread.Apply(list)))
		}),
		notifyclient.WithOnLive(func(n notifyclient.Notification) {
			if f.Match(n) {
				printNotification(os.Stdout, time.Now(), n)
			}
		}),
	)

	if reconnect {
		err = notifyclient.NewReconnecting(log, consumer).Run(ctx)
	} else {
		err = consumer.Run(ctx)
	}
	if err != nil {
		log.Error("notification stream failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func printHistory(w io.Writer, now time.Time, list []notifyclient.Notification) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}
	for _, g := range notifyclient.GroupByDay(now, list) {
		fmt.Fprintf(w, "%s\n", g.Label)
		for _, n := range g.Items {
			printNotification(w, now, n)
		}
	}
}

func printNotification(w io.Writer, now time.Time, n notifyclient.Notification) {
	mark := " "
	if !n.IsRead {
		mark = "*"
	}
	fmt.Fprintf(w, "  %s [%s] %s: %s (%s)\n", mark, n.Type, n.Title, n.Message, notifyclient.TimeAgo(now, n.CreatedAt))
}
