// Package dashboard serves a read-only JSON view of the store for the
// bot owner.
package dashboard

import (
	"crypto/subtle"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/config"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// SecretHeader carries the shared admin secret.
const SecretHeader = "X-Admin-Secret"

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// Server is the dashboard HTTP server.
type Server struct {
	app     *fiber.App
	store   store.Store
	catalog *catalog.Catalog
}

// New builds the dashboard over st. Without configured credentials every
// /api request is refused.
func New(st store.Store, cat *catalog.Catalog, admin config.AdminConfig) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "owobot dashboard",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		store:   st,
		catalog: cat,
	}
	s.app.Use(recover.New())

	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api", authMiddleware(admin))
	api.Get("/users/:id", s.user)
	api.Get("/users/:id/inventory", s.inventory)
	api.Get("/top/:category", s.top)
	api.Get("/marriages", s.marriages)
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting dashboard")
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Dashboard request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// authMiddleware accepts the shared secret header or HTTP basic auth.
func authMiddleware(admin config.AdminConfig) fiber.Handler {
	hasBasic := admin.Username != "" && admin.Password != ""
	if admin.Secret == "" && !hasBasic {
		return func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusServiceUnavailable, "dashboard credentials are not configured")
		}
	}

	secretOK := func(c *fiber.Ctx) bool {
		got := c.Get(SecretHeader)
		return admin.Secret != "" && got != "" &&
			subtle.ConstantTimeCompare([]byte(got), []byte(admin.Secret)) == 1
	}
	users := map[string]string{}
	if hasBasic {
		users[admin.Username] = admin.Password
	}
	return basicauth.New(basicauth.Config{
		Next:  secretOK,
		Users: users,
		Realm: "owobot",
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="owobot"`)
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		},
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func userID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return err
}

// userView is a user with its derived ranks.
type userView struct {
	*model.User
	WealthRank string `json:"wealth_rank"`
}

func (s *Server) user(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	u, err := s.store.FindUser(c.UserContext(), id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(userView{User: u, WealthRank: s.catalog.WealthRank(u.Balance).Name})
}

func (s *Server) inventory(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	if _, err := s.store.FindUser(c.UserContext(), id); err != nil {
		return storeError(err)
	}
	inv, err := s.store.GetInventory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"id":    inv.ID,
		"items": inv.Items,
		"total": inv.Total(),
	})
}

func (s *Server) top(c *fiber.Ctx) error {
	field, ok := store.ParseTopField(c.Params("category"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "category must be balance, level or xp")
	}
	limit := c.QueryInt("limit", defaultTopLimit)
	if limit <= 0 || limit > maxTopLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
	}
	users, err := s.store.TopUsers(c.UserContext(), field, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": field, "users": users})
}

func (s *Server) marriages(c *fiber.Ctx) error {
	all, err := s.store.ListMarriages(c.UserContext())
	if err != nil {
		return err
	}
	out := all
	if c.QueryBool("active") {
		out = make([]*model.Marriage, 0, len(all))
		for _, m := range all {
			if m.Active() {
				out = append(out, m)
			}
		}
	}
	return c.JSON(fiber.Map{"marriages": out})
}
