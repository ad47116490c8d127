package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/followup/backend/internal/config"
	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/dashboard"
	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/realtime"
	"github.com/followup/backend/internal/transport/http/dto"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "backend base URL")
	wsURL := flag.String("ws", "", "realtime websocket URL (derived from -url when empty)")
	apiKey := flag.String("api-key", os.Getenv("FOLLOWUP_AUTH_ADMIN_API_KEY"), "admin API key")
	complete := flag.String("complete", "", "mark the task with this id completed")
	follow := flag.Bool("follow", false, "keep running and refresh on task.created")
	encoding := flag.String("encoding", "json", "realtime encoding: json or cbor")
	flag.Parse()

	log, err := logger.New(config.LoggerConfig{
		Level:            "warn",
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := dashboard.NewBoard(dashboard.NewHTTPAPI(dashboard.HTTPAPIConfig{
		BaseURL: *baseURL,
		APIKey:  *apiKey,
	}), log)

	if err := board.Refresh(ctx); err != nil {
		log.Fatalf("failed to load today's tasks: %v", err)
	}

	if *complete != "" {
		if err := board.MarkComplete(ctx, *complete); err != nil {
			log.Fatalf("failed to complete task %s: %v", *complete, err)
		}
		fmt.Printf("✓ Task %s completed\n", *complete)
	}

	render(board.Tasks())

	if !*follow {
		return
	}

	endpoint := *wsURL
	if endpoint == "" {
		endpoint = strings.Replace(strings.TrimRight(*baseURL, "/"), "http", "ws", 1) + "/realtime/v1/websocket"
	}
	client, err := realtime.NewClient(realtime.ClientConfig{
		URL:      endpoint,
		Encoding: *encoding,
		Logger:   log,
	})
	if err != nil {
		log.Fatalf("failed to create realtime client: %v", err)
	}
	sub, err := client.Listen(ctx, "tasks")
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-sub.States():
			switch state {
			case ports.SubscriptionSubscribed:
				fmt.Println("Following task.created on channel tasks...")
			default:
				log.Errorf("realtime subscription %s", state)
				return
			}
		case f, ok := <-sub.Frames():
			if !ok {
				return
			}
			if err := board.HandleFrame(ctx, f); err != nil {
				log.Warnw("board_refresh_failed", "error", err)
				continue
			}
			fmt.Printf("\n[%s] new task %v\n", time.Now().Format(time.TimeOnly), f.Payload["task_id"])
			render(board.Tasks())
		}
	}
}

func render(tasks []dto.TaskResponse) {
	if len(tasks) == 0 {
		fmt.Println("No open tasks due today.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tRELATED\tDUE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Type, t.RelatedID, t.DueAt.Local().Format("15:04"))
	}
	w.Flush()
}
