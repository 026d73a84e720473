// Package main provides the mmchat CLI application entry point.
// mmchat is a terminal client for a remote multimodal generation endpoint:
// it manages named conversation threads, submits text and file attachments,
// and renders the assistant's replies.
package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mmchat/internal/attachment"
	"mmchat/internal/client"
	"mmchat/internal/config"
	"mmchat/internal/conversation"
	"mmchat/internal/logger"
	"mmchat/internal/pipeline"
	"mmchat/internal/render"
	"mmchat/internal/storage"
	"mmchat/internal/threads"
	"mmchat/pkg/chattypes"
)

var version = "0.1.0" // This could be set at build time

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmchat",
	Short: "mmchat - multimodal chat client",
	Long: `mmchat is a terminal chat client for a remote multimodal generation service.
It keeps named conversation threads across runs and can send text, inline
images, and office-document attachments.`,
}

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Submit a message to the active thread",
	Long: `Submit a message to the active thread. Text arguments are joined with
spaces. --file attaches an image or office document; when a file is attached
the typed text is not sent, matching the service protocol. --image embeds an
image inline alongside the text instead.`,
	RunE: runSend,
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new thread and make it active",
	RunE:  runNew,
}

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List threads",
	RunE:  runThreads,
}

var switchCmd = &cobra.Command{
	Use:   "switch <thread-id>",
	Short: "Make a thread active and load its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSwitch,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the active thread's history",
	RunE:  runHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("mmchat v%s\n", version)
	},
}

var (
	filePath  string
	imagePath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.String("base-url", "", "Generation service base URL [default: http://127.0.0.1:8000]")
	flags.String("store-path", "", "Session storage file [default: ~/.mmchat/state.json]")
	flags.Bool("test-mode", false, "Run with deterministic ids and timestamps")

	bindings := map[string]string{
		"log_level":  "log-level",
		"log_file":   "log-file",
		"base_url":   "base-url",
		"store_path": "store-path",
		"test_mode":  "test-mode",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	sendCmd.Flags().StringVar(&filePath, "file", "", "Attach an image or office document (replaces the text on the wire)")
	sendCmd.Flags().StringVar(&imagePath, "image", "", "Embed an image inline alongside the text")

	rootCmd.AddCommand(sendCmd, newCmd, threadsCmd, switchCmd, historyCmd, versionCmd)
}

// app wires the conversation core together for one CLI invocation. All
// state objects are explicit and constructor-injected.
type app struct {
	settings *config.Settings
	threads  *threads.Store
	cache    *conversation.Cache
	pipeline *pipeline.Pipeline
	renderer *render.Renderer
}

func buildApp() (*app, error) {
	settings := config.Load()
	if err := logger.Configure(settings.LogLevel, settings.LogFile); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	kv, err := storage.NewFileStore(settings.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	remote := client.New(client.Config{
		BaseURL: settings.BaseURL,
		Timeout: settings.Timeout,
	})

	cache := conversation.NewCache(remote)
	store := threads.NewStore(kv, cache)
	store.SetTestMode(settings.TestMode)
	store.Load()

	validator := attachment.NewValidator()
	pipe := pipeline.New(remote, store, cache, validator, pipeline.GenerationParams{
		MaxNewTokens: settings.MaxNewTokens,
		Temperature:  settings.Temperature,
	})
	pipe.SetTestMode(settings.TestMode)

	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}

	return &app{
		settings: settings,
		threads:  store,
		cache:    cache,
		pipeline: pipe,
		renderer: renderer,
	}, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	a.pipeline.SetText(strings.Join(args, " "))

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read attachment: %w", err)
		}
		if err := a.pipeline.Attach(filepath.Base(filePath), declaredType(filePath), data); err != nil {
			fmt.Println(err.Error())
			return nil
		}
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		if err := a.pipeline.EmbedImage(filepath.Base(imagePath), declaredType(imagePath), data); err != nil {
			fmt.Println(err.Error())
			return nil
		}
	}

	threadID := a.threads.ActiveID()
	status, err := a.pipeline.Submit(cmd.Context())
	if err != nil {
		var validationErr *chattypes.ValidationError
		if errors.Is(err, chattypes.ErrEmptyInput) || errors.As(err, &validationErr) {
			fmt.Println(err.Error())
			return nil
		}
		return fmt.Errorf("submission failed: %w", err)
	}

	history := a.cache.Get(threadID)
	if len(history) > 0 {
		fmt.Print(a.renderer.Message(history[len(history)-1]))
	}
	fmt.Printf("status: %s\n", status)
	return nil
}

func runNew(_ *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	thread, err := a.threads.CreateThread()
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) is now active\n", thread.Title, thread.ID)
	return nil
}

func runThreads(_ *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	session := a.threads.Session()
	if len(session.Threads) == 0 {
		fmt.Println("no threads yet; create one with 'mmchat new'")
		return nil
	}

	for _, thread := range session.Threads {
		marker := " "
		if thread.ID == session.ActiveThreadID {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, thread.ID, thread.Title)
	}
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	id := args[0]
	before := a.threads.ActiveID()
	if err := a.threads.SelectThread(cmd.Context(), id); err != nil {
		// The selection stands even when hydration failed.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if a.threads.ActiveID() == before && before != id {
		fmt.Printf("unknown thread %s\n", id)
		return nil
	}

	fmt.Print(a.renderer.Transcript(a.cache.Get(id)))
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	id := a.threads.ActiveID()
	if id == "" {
		fmt.Println("no active thread")
		return nil
	}

	if err := a.cache.Hydrate(cmd.Context(), id); err != nil {
		fmt.Fprintf(os.Stderr, "warning: showing cached history: %v\n", err)
	}
	fmt.Print(a.renderer.Transcript(a.cache.Get(id)))
	return nil
}

// declaredType maps a file extension to its declared MIME type. The content
// itself is never sniffed.
func declaredType(path string) string {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	return contentType
}

// Office extensions are not in every platform's MIME table.
func init() {
	extensions := map[string]string{
		".doc":  "application/msword",
		".xls":  "application/vnd.ms-excel",
		".ppt":  "application/vnd.ms-powerpoint",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		".webp": "image/webp",
		".bmp":  "image/bmp",
	}
	for ext, contentType := range extensions {
		_ = mime.AddExtensionType(ext, contentType)
	}
}
