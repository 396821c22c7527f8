// FILE: internal/http/handler.go
package http

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/mattslight/blunderfixer-api/internal/analysis"
	"github.com/mattslight/blunderfixer-api/internal/core"
	"github.com/mattslight/blunderfixer-api/internal/storage"
)

const rateLimitRate = 10 // req/sec

type HTTPHandler struct {
	store *storage.Store
	log   *zap.Logger
}

func NewHTTPHandler(store *storage.Store, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{store: store, log: log}
}

func NewFiberApp(store *storage.Store, log *zap.Logger, devMode bool) *fiber.App {
	h := NewHTTPHandler(store, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2 // Loosen rate limiter for testing
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/analysis/features", h.ExtractFeatures)
	api.Post("/analysis/phase", h.ClassifyPhase)
	api.Post("/analysis/themes", h.DetectThemes)
	api.Post("/games", h.ImportGame)
	api.Get("/drills", h.ListDrills)

	return app
}

// contentTypeValidator ensures POST requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// ExtractFeatures runs the static position analyzer on a FEN
func (h *HTTPHandler) ExtractFeatures(c *fiber.Ctx) error {
	req, err := validatedRequest[core.ExtractFeaturesRequest](c)
	if req == nil {
		return err
	}

	report, err := analysis.ExtractFeatures(req.FEN)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid FEN",
			Code:    core.ErrInvalidFEN,
			Details: err.Error(),
		})
	}
	return c.JSON(report)
}

// ClassifyPhase maps a ply and material snapshot to a game phase
func (h *HTTPHandler) ClassifyPhase(c *fiber.Ctx) error {
	req, err := validatedRequest[core.ClassifyPhaseRequest](c)
	if req == nil {
		return err
	}

	phase := analysis.ClassifyPhase(req.Ply, req.Material, req.OpeningThreshold)
	return c.JSON(core.ClassifyPhaseResponse{Phase: phase})
}

// DetectThemes tags a single SAN move with tactical motifs
func (h *HTTPHandler) DetectThemes(c *fiber.Ctx) error {
	req, err := validatedRequest[core.DetectThemesRequest](c)
	if req == nil {
		return err
	}

	themes, err := analysis.DetectThemes(req.FEN, req.Move)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid FEN",
			Code:    core.ErrInvalidFEN,
			Details: err.Error(),
		})
	}
	return c.JSON(core.DetectThemesResponse{Themes: themes})
}

// ImportGame stores a game and queues it for drill mining
func (h *HTTPHandler) ImportGame(c *fiber.Ctx) error {
	req, err := validatedRequest[core.ImportGameRequest](c)
	if req == nil {
		return err
	}

	if !strings.EqualFold(req.HeroUsername, req.WhiteUsername) &&
		!strings.EqualFold(req.HeroUsername, req.BlackUsername) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "hero is not a player in this game",
			Code:    core.ErrInvalidRequest,
			Details: "hero_username must match white_username or black_username",
		})
	}

	game := core.GameRecord{
		GameUUID:      req.GameUUID,
		WhiteUsername: req.WhiteUsername,
		BlackUsername: req.BlackUsername,
		WhiteResult:   req.WhiteResult,
		BlackResult:   req.BlackResult,
		TimeControl:   req.TimeControl,
		TimeClass:     req.TimeClass,
		// Stored verbatim: the miner needs the [%clk] comments intact.
		PGN: req.PGN,
	}
	if game.GameUUID == "" {
		game.GameUUID = gameFingerprint(req)
	}
	if req.PlayedAt != nil {
		game.PlayedAt = *req.PlayedAt
	} else {
		game.PlayedAt = time.Now().UTC()
	}

	gameID, err := h.store.SaveGame(game)
	if err != nil {
		h.log.Error("failed to save game", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	workID, queued, err := h.store.EnqueueWork(gameID, req.HeroUsername)
	if err != nil {
		h.log.Error("failed to enqueue work", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(core.ImportGameResponse{
		GameID: gameID,
		WorkID: workID,
		Queued: queued,
	})
}

// ListDrills returns stored drills joined with their game context
func (h *HTTPHandler) ListDrills(c *fiber.Ctx) error {
	username := c.Query("username")
	gameID := c.Query("game_id")
	phase := core.Phase(c.Query("phase"))
	minSwing := c.QueryFloat("min_swing", 0)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	drills, err := h.store.ListDrills(username, gameID, minSwing, limit)
	if err != nil {
		h.log.Error("failed to list drills", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	games := make(map[string]*core.GameRecord)
	out := make([]core.DrillResponse, 0, len(drills))
	for _, d := range drills {
		game, ok := games[d.GameID]
		if !ok {
			game, err = h.store.GetGame(d.GameID)
			if err != nil {
				h.log.Error("failed to load game for drill", zap.Error(err))
				return fiber.ErrInternalServerError
			}
			games[d.GameID] = game
		}
		resp := drillResponse(d, game)
		if phase != "" && resp.Phase != phase {
			continue
		}
		out = append(out, resp)
	}
	return c.JSON(out)
}

func drillResponse(d core.DrillRecord, game *core.GameRecord) core.DrillResponse {
	resp := core.DrillResponse{
		ID:                d.ID,
		GameID:            d.GameID,
		Username:          d.Username,
		FEN:               d.FEN,
		Ply:               d.Ply,
		InitialEval:       d.InitialEval,
		EvalSwing:         d.EvalSwing,
		LosingMove:        d.LosingMove,
		Phase:             analysis.ClassifyPhase(d.Ply, d.Material, 0),
		HasOneWinningMove: d.Assessment.HasOneWinningMove,
		WinningMoves:      d.Assessment.WinningMoves,
		WinningLines:      d.Assessment.WinningLines,
		Themes:            d.Themes,
		TimeUsed:          d.TimeUsed,
		CreatedAt:         d.CreatedAt,
	}
	if game != nil {
		if strings.EqualFold(game.WhiteUsername, d.Username) {
			resp.OpponentUsername = game.BlackUsername
		} else {
			resp.OpponentUsername = game.WhiteUsername
		}
		resp.TimeControl = game.TimeControl
		resp.TimeClass = game.TimeClass
		resp.GamePlayedAt = game.PlayedAt
	}
	return resp
}

// gameFingerprint derives a stable external key for imports that carry no
// UUID, so re-importing the same game still deduplicates. The PGN is
// normalized first: two exports of one game may differ only in annotations.
func gameFingerprint(req *core.ImportGameRequest) string {
	sum := sha256.Sum256([]byte(req.WhiteUsername + "|" + req.BlackUsername + "|" + analysis.CleanPGN(req.PGN)))
	return hex.EncodeToString(sum[:16])
}
