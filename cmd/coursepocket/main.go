package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"coursepocket/internal/api"
	"coursepocket/internal/catalog"
	"coursepocket/internal/config"
	"coursepocket/internal/domain"
	"coursepocket/internal/notify"
	"coursepocket/internal/repository"
	"coursepocket/internal/repository/securefile"
	"coursepocket/internal/repository/sqlite"
	"coursepocket/internal/service"
	"coursepocket/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	email := flag.String("email", "", "email for login/register")
	password := flag.String("password", "", "password for login/register")
	username := flag.String("username", "", "register a new account with this username")
	logout := flag.Bool("logout", false, "clear the current session and exit")
	search := flag.String("search", "", "filter the catalog by title/description")
	bookmark := flag.String("bookmark", "", "toggle a bookmark for the given course id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	kvRepo := sqlite.NewKVRepository(db)
	if err := kvRepo.Init(ctx); err != nil {
		logger.Fatalf("init kv repository: %v", err)
	}

	tokenRepo, err := buildTokenBackend(ctx, cfg, kvRepo)
	if err != nil {
		logger.Fatalf("setup token backend: %v", err)
	}

	client := api.New(cfg.API.BaseURL, logger)
	tokens := token.NewStore(tokenRepo, logger)

	session := service.NewSessionService(tokens, client, logger)
	session.Subscribe(func(s domain.Session) {
		logger.Infof("session state: %s", s.Status)
	})

	bookmarks := service.NewBookmarkService(kvRepo, logger)
	defer bookmarks.Close()
	go func() {
		for ev := range bookmarks.Events() {
			logger.Warnf("bookmark %s not durable: %v", ev.CourseID, ev.Err)
		}
	}()

	scheduler := notify.NewScheduler(cfg.Notify.ReminderDelay, nil, logger)
	defer scheduler.Close()

	session.Initialize(ctx)
	bookmarks.LoadSaved(ctx)

	if *logout {
		session.Logout(ctx)
		return
	}

	if *email != "" && *password != "" {
		authenticate(ctx, logger, client, tokens, session, *username, *email, *password)
	}

	loader := catalog.NewLoader(client, logger)
	courses, err := loader.Load(ctx)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	bookmarks.SetCatalog(courses)

	for _, c := range catalog.Filter(courses, *search) {
		marker := " "
		if bookmarks.IsBookmarked(c.ID) {
			marker = "*"
		}
		fmt.Printf("%s %-12s %-48s $%.2f\n", marker, c.ID, c.Title, c.Price)
	}

	if *bookmark != "" {
		bookmarks.Toggle(ctx, *bookmark)
		if bookmarks.IsBookmarked(*bookmark) {
			if course, ok := courseByID(courses, *bookmark); ok {
				scheduler.ScheduleCourseReminder(course.ID, course.Title)
			}
		} else {
			logger.Infof("bookmark removed for %s", *bookmark)
		}
	}
}

// authenticate runs the caller side of the session contract: call the
// gateway, persist the token, then hand the identity to the session.
func authenticate(
	ctx context.Context,
	logger *logrus.Logger,
	client *api.Client,
	tokens *token.Store,
	session service.SessionService,
	username, email, password string,
) {
	var (
		envelope *api.AuthEnvelope
		err      error
	)
	if username != "" {
		envelope, err = client.Register(ctx, username, email, password)
	} else {
		envelope, err = client.Login(ctx, email, password)
	}
	if err != nil {
		logger.Fatalf("auth request: %v", err)
	}
	if !envelope.Success || envelope.Data == nil || envelope.Data.AccessToken == "" {
		logger.Fatalf("auth failed: %s", envelope.Message)
	}

	tokens.Save(ctx, envelope.Data.AccessToken)
	session.Login(envelope.Data.User.ToUser(), envelope.Data.AccessToken)
}

// buildTokenBackend selects the store for the bearer token: the encrypted
// secure file by default, the shared sqlite kv table when configured.
func buildTokenBackend(ctx context.Context, cfg config.Config, kvRepo repository.KVRepository) (repository.KVRepository, error) {
	if cfg.Storage.TokenBackend == "sqlite" {
		return kvRepo, nil
	}

	if cfg.Storage.SecureSecret == "" {
		return nil, fmt.Errorf("storage secure secret is required for the secure backend")
	}
	repo, err := securefile.New(cfg.Storage.SecurePath, cfg.Storage.SecureSecret)
	if err != nil {
		return nil, err
	}
	if err := repo.Init(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func courseByID(courses []domain.Course, id string) (domain.Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Course{}, false
}
