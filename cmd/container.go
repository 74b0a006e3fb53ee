package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/hirelens/hirelens/internal/ai/embeddings"
	"github.com/hirelens/hirelens/internal/ai/screenai"
	"github.com/hirelens/hirelens/internal/githubx"
	"github.com/hirelens/hirelens/internal/linkcheck"
	"github.com/hirelens/hirelens/internal/mailer"
	"github.com/hirelens/hirelens/internal/textract"
	"github.com/hirelens/hirelens/pkg/fsx"
	"github.com/hirelens/hirelens/pkg/fsx/fsxlocal"
	"github.com/hirelens/hirelens/pkg/fsx/fsxs3"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/screening"
	"github.com/hirelens/hirelens/screening/screeningapi"
	"github.com/hirelens/hirelens/screening/screeninginfra"
	"github.com/hirelens/hirelens/screening/screeningsrv"
	"github.com/hirelens/hirelens/screening/worker"
)

const screeningQueueName = "screening:jobs"

// Container holds all application dependencies
type Container struct {
	// Config
	APIKey      string
	WorkerCount int

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client

	// Services
	ScreeningService *screeningsrv.Service
	Worker           *worker.ScreeningWorker

	// API Handlers
	ScreeningHandlers *screeningapi.ScreeningHandlers
}

// NewContainer initializes the dependency injection container
func NewContainer() *Container {
	c := &Container{}
	c.initInfrastructure()
	c.initServices()
	return c
}

func (c *Container) initInfrastructure() {
	// 1. Database Connection
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASS")
	dbName := os.Getenv("DB_NAME")
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPass, dbName)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	c.DB = db

	// 2. Redis Connection
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPass := os.Getenv("REDIS_PASS")
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPass,
		DB:       0,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Warnf("Failed to connect to Redis: %v", err)
	}

	// 3. File Storage (S3 by default, local disk for development)
	switch os.Getenv("STORAGE_DRIVER") {
	case "local":
		dir := os.Getenv("LOCAL_STORAGE_DIR")
		if dir == "" {
			dir = "./uploads"
		}
		fs, err := fsxlocal.NewLocalFileSystem(dir)
		if err != nil {
			logx.Fatalf("Failed to initialize local storage: %v", err)
		}
		c.FileSystem = fs
	default:
		awsRegion := os.Getenv("AWS_REGION")
		awsBucket := os.Getenv("AWS_BUCKET")
		cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
		if err != nil {
			logx.Fatalf("unable to load SDK config, %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, awsBucket, "uploads")
	}

	// 4. API Key
	c.APIKey = os.Getenv("API_KEY")
	if c.APIKey == "" {
		logx.Warn("API_KEY is not set, endpoints are unauthenticated")
	}

	// 5. Worker Pool Size
	c.WorkerCount = 3
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logx.Warnf("Invalid WORKER_COUNT %q, using default", v)
		} else {
			c.WorkerCount = n
		}
	}
}

func (c *Container) initServices() {
	// --- Repositories ---
	repo := screeninginfra.NewPostgresRepository(c.DB)
	jobRepo := screeninginfra.NewPostgresJobRepository(c.DB)
	queue := screeninginfra.NewRedisQueue(c.Redis, screeningQueueName)

	// --- Pipeline Dependencies ---
	extractor := textract.New()
	analyzer := newAnalyzer()
	embedder := embeddings.NewGenerator(os.Getenv("OPENAI_API_KEY"))
	linkVerifier := linkcheck.NewVerifier()
	profileAnalyzer := githubx.NewProfileAnalyzer(os.Getenv("GITHUB_TOKEN"))

	smtpPort := 465
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			smtpPort = n
		}
	}
	notifier := mailer.New(mailer.Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	})

	// --- Domain Service ---
	c.ScreeningService = screeningsrv.NewService(
		repo,
		jobRepo,
		extractor,
		analyzer,
		embedder,
		linkVerifier,
		profileAnalyzer,
		notifier,
		c.FileSystem,
		queue,
	)

	// --- Background Worker ---
	c.Worker = worker.NewScreeningWorker(c.ScreeningService, queue, c.WorkerCount)

	// --- Handlers ---
	c.ScreeningHandlers = screeningapi.NewScreeningHandlers(c.ScreeningService)
}

// newAnalyzer picks the LLM backend from LLM_PROVIDER. Gemini is the default,
// "openai" switches to the Chat Completions API.
func newAnalyzer() screening.Analyzer {
	switch os.Getenv("LLM_PROVIDER") {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logx.Fatal("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		return screenai.NewOpenAIAnalyzer(apiKey, os.Getenv("OPENAI_MODEL"))
	default:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			logx.Fatal("GEMINI_API_KEY is required")
		}
		analyzer, err := screenai.NewGeminiAnalyzer(context.Background(), apiKey, os.Getenv("GEMINI_MODEL"))
		if err != nil {
			logx.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		return analyzer
	}
}
