package testutil

import (
	"net"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/handlers"
	"github.com/localnerve/landlord-propsdb/internal/services"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/store/gormstore"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Test landlords and their session cookies
var (
	Alice = store.Principal{ID: "11111111-1111-1111-1111-111111111111", Email: "alice@example.com"}
	Bob   = store.Principal{ID: "22222222-2222-2222-2222-222222222222", Email: "bob@example.com"}
)

// Session cookies accepted by Sessions
const (
	AliceSession = "alice-session"
	BobSession   = "bob-session"
)

// Sessions authenticates AliceSession and BobSession
func Sessions() services.StaticAuthenticator {
	return services.StaticAuthenticator{
		AliceSession: Alice,
		BobSession:   Bob,
	}
}

// NewApp creates the store's fiber app over db
func NewApp(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})
	handlers.Register(app, gormstore.New(db), Sessions())
	app.Use(handlers.NotFound)
	return app
}

// NewServer serves NewApp on a loopback port until the test ends and returns its base URL
func NewServer(t testing.TB, db *gorm.DB) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to listen")

	app := NewApp(db)
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return "http://" + ln.Addr().String()
}
