package server

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"
	pinguard "epulsaku/services/pinguard"
	purchase "epulsaku/services/purchase"

	// External Packages
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Ledger is the slice of the transaction ledger the HTTP surface
// exposes.
type Ledger interface {
	GetAll(ctx context.Context) ([]models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	Delete(ctx context.Context, id string) error
}

type Purchaser interface {
	Submit(ctx context.Context, in purchase.Input) (models.Transaction, error)
}

type PinVerifier interface {
	Verify(ctx context.Context, username, pin string) (models.PinVerifyResult, error)
}

type Rechecker interface {
	CheckNow(ctx context.Context, id string) (models.Transaction, bool, error)
}

type UserSource interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// PriceAdmin manages the selling-price override map.
type PriceAdmin interface {
	Set(ctx context.Context, provider, productCode string, price int) error
	Delete(ctx context.Context, provider, productCode string) error
}

// Server is the thin JSON API fronting the storefront services. It
// owns no business rules; every decision is delegated.
type Server struct {
	app       *fiber.App
	ledger    Ledger
	purchaser Purchaser
	guard     PinVerifier
	rechecker Rechecker
	users     UserSource
	prices    PriceAdmin
	logins    *pinguard.LoginLimiter
	logger    *zap.Logger
}

func New(ledger Ledger, purchaser Purchaser, guard PinVerifier, rechecker Rechecker,
	users UserSource, prices PriceAdmin, logins *pinguard.LoginLimiter, logger *zap.Logger) *Server {
	s := &Server{
		app:       fiber.New(fiber.Config{DisableStartupMessage: true}),
		ledger:    ledger,
		purchaser: purchaser,
		guard:     guard,
		rechecker: rechecker,
		users:     users,
		prices:    prices,
		logins:    logins,
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Post("/auth/login", s.handleLogin)
	api.Post("/pin/verify", s.handlePinVerify)
	api.Post("/purchase", s.handlePurchase)
	api.Get("/transactions", s.handleListTransactions)
	api.Get("/transactions/:id", s.handleGetTransaction)
	api.Delete("/transactions/:id", s.handleDeleteTransaction)
	api.Post("/transactions/:id/recheck", s.handleRecheck)
	api.Put("/prices/:provider/:code", s.handleSetPrice)
	api.Delete("/prices/:provider/:code", s.handleDeletePrice)
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username dan password wajib diisi")
	}

	if s.logins.Blocked(req.Username) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"message": "Terlalu banyak percobaan login. Coba lagi beberapa menit lagi.",
		})
	}

	user, err := s.users.FindByUsername(c.Context(), req.Username)
	if errors.Is(errors.NotFound, err) ||
		(err == nil && bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil) {
		if s.logins.RecordFailure(req.Username) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Terlalu banyak percobaan login. Coba lagi beberapa menit lagi.",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Username atau password salah.",
		})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	if user.IsDisabled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Akun dinonaktifkan. Hubungi admin.",
		})
	}

	s.logins.RecordSuccess(req.Username)
	return c.JSON(fiber.Map{"username": user.Username, "role": user.Role})
}

type pinVerifyRequest struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

func (s *Server) handlePinVerify(c *fiber.Ctx) error {
	var req pinVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := s.guard.Verify(c.Context(), req.Username, req.Pin)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(res)
}

type purchaseRequest struct {
	Username        string `json:"username"`
	Pin             string `json:"pin"`
	Provider        string `json:"provider"`
	RefID           string `json:"ref_id"`
	ProductName     string `json:"product_name"`
	ProductCategory string `json:"product_category"`
	ProductBrand    string `json:"product_brand"`
	Details         string `json:"details"`
	BuyerSkuCode    string `json:"buyer_sku_code"`
	CustomerNo      string `json:"customer_no"`
	CostPrice       int    `json:"cost_price"`
}

func (s *Server) handlePurchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.BuyerSkuCode == "" || req.CustomerNo == "" {
		return fiber.NewError(fiber.StatusBadRequest, "buyer_sku_code dan customer_no wajib diisi")
	}

	tx, err := s.purchaser.Submit(c.Context(), purchase.Input{
		Username:        req.Username,
		Pin:             req.Pin,
		Provider:        req.Provider,
		RefID:           req.RefID,
		ProductName:     req.ProductName,
		ProductCategory: req.ProductCategory,
		ProductBrand:    req.ProductBrand,
		Details:         req.Details,
		BuyerSkuCode:    req.BuyerSkuCode,
		CustomerNo:      req.CustomerNo,
		CostPrice:       req.CostPrice,
	})
	if errors.Is(errors.Invalid, err) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (s *Server) handleListTransactions(c *fiber.Ctx) error {
	txs, err := s.ledger.GetAll(c.Context())
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(txs)
}

func (s *Server) handleGetTransaction(c *fiber.Ctx) error {
	tx, err := s.ledger.GetByID(c.Context(), c.Params("id"))
	if errors.Is(errors.NotFound, err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(tx)
}

func (s *Server) handleDeleteTransaction(c *fiber.Ctx) error {
	err := s.ledger.Delete(c.Context(), c.Params("id"))
	if errors.Is(errors.NotFound, err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleRecheck(c *fiber.Ctx) error {
	tx, applied, err := s.rechecker.CheckNow(c.Context(), c.Params("id"))
	if errors.Is(errors.NotFound, err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}
	if errors.Is(errors.Upstream, err) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(fiber.Map{"applied": applied, "transaction": tx})
}

type setPriceRequest struct {
	Price int `json:"price"`
}

func (s *Server) handleSetPrice(c *fiber.Ctx) error {
	var req setPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	err := s.prices.Set(c.Context(), c.Params("provider"), c.Params("code"), req.Price)
	if errors.Is(errors.Invalid, err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeletePrice(c *fiber.Ctx) error {
	err := s.prices.Delete(c.Context(), c.Params("provider"), c.Params("code"))
	if errors.Is(errors.Invalid, err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		return s.internalError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) internalError(c *fiber.Ctx, err error) error {
	s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
}
