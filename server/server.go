package server

import (
	"strconv"
	"time"

	"newsdesk/db"
	"newsdesk/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type ServerConfig struct {

	// The reader to use for answering queries
	Reader *db.Reader
}

// Returns a fiber.App instance serving the read-only news query API
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/api/items/recent", func(c *fiber.Ctx) error {
		items, err := config.Reader.RecentItems(parseLimit(c), activeOnly(c))
		if err != nil {
			log.WithField("error", err).Error("Error getting recent items")
			return c.Status(500).SendString("Error getting recent items")
		}
		return c.JSON(itemsOrEmpty(items))
	})

	app.Get("/api/items/search", func(c *fiber.Ctx) error {
		keyword := c.Query("q", "")
		if keyword == "" {
			return c.Status(400).SendString("Missing query parameter q")
		}

		items, err := config.Reader.SearchItems(keyword, parseLimit(c))
		if err != nil {
			log.WithField("error", err).Error("Error searching items")
			return c.Status(500).SendString("Error searching items")
		}
		return c.JSON(itemsOrEmpty(items))
	})

	app.Get("/api/items", func(c *fiber.Ctx) error {
		source := c.Query("source", "")
		category := c.Query("category", "")

		var (
			items []models.NewsItem
			err   error
		)

		switch {
		case source != "":
			items, err = config.Reader.ItemsBySource(source, parseLimit(c), activeOnly(c))
		case category != "":
			items, err = config.Reader.ItemsByCategory(category, parseLimit(c), activeOnly(c))
		default:
			return c.Status(400).SendString("Specify either source or category")
		}

		if err != nil {
			log.WithFields(log.Fields{
				"source":   source,
				"category": category,
				"error":    err,
			}).Error("Error getting items")
			return c.Status(500).SendString("Error getting items")
		}
		return c.JSON(itemsOrEmpty(items))
	})

	app.Get("/api/sources", func(c *fiber.Ctx) error {
		sources, err := config.Reader.ListSources(activeOnly(c))
		if err != nil {
			log.WithField("error", err).Error("Error listing sources")
			return c.Status(500).SendString("Error listing sources")
		}
		if sources == nil {
			sources = []models.Source{}
		}
		return c.JSON(sources)
	})

	app.Get("/api/categories", func(c *fiber.Ctx) error {
		categories, err := config.Reader.ListCategories(activeOnly(c))
		if err != nil {
			log.WithField("error", err).Error("Error listing categories")
			return c.Status(500).SendString("Error listing categories")
		}
		if categories == nil {
			categories = []string{}
		}
		return c.JSON(categories)
	})

	return app
}

func parseLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 1000 {
		return 20
	}
	return limit
}

func activeOnly(c *fiber.Ctx) bool {
	return c.QueryBool("active", false)
}

func itemsOrEmpty(items []models.NewsItem) []models.NewsItem {
	if items == nil {
		return []models.NewsItem{}
	}
	return items
}
