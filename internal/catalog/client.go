// Package catalog talks to the headless catalog service. All access is
// read-only; this codebase never mutates a product.
package catalog

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SkundKumar/yezee/pkg/models"
)

type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *logrus.Logger
}

func NewClient(baseURL, consumerKey, consumerSecret string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ProductQuery narrows a product listing. A nil query returns the default
// page of the catalog.
type ProductQuery struct {
	Include  []int64
	Category int64
	PerPage  int
}

func (c *Client) GetProducts(query *ProductQuery) ([]models.Product, error) {
	params := url.Values{}
	if query != nil {
		if len(query.Include) > 0 {
			ids := make([]string, len(query.Include))
			for i, id := range query.Include {
				ids[i] = strconv.FormatInt(id, 10)
			}
			params.Set("include", strings.Join(ids, ","))
		}
		if query.Category != 0 {
			params.Set("category", strconv.FormatInt(query.Category, 10))
		}
		if query.PerPage > 0 {
			params.Set("per_page", strconv.Itoa(query.PerPage))
		}
	}

	var products []models.Product
	if err := c.get("/products", params, &products); err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(products)).Info("Retrieved products from catalog")
	return products, nil
}

func (c *Client) GetProduct(id int64) (*models.Product, error) {
	var product models.Product
	if err := c.get("/products/"+strconv.FormatInt(id, 10), nil, &product); err != nil {
		return nil, err
	}

	c.logger.WithField("product_id", id).Info("Retrieved product from catalog")
	return &product, nil
}

func (c *Client) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := c.get("/products/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategoryBySlug resolves a category by its URL slug. The catalog returns
// a list for slug filters; the first match wins.
func (c *Client) GetCategoryBySlug(slug string) (*models.Category, error) {
	params := url.Values{}
	params.Set("slug", slug)

	var categories []models.Category
	if err := c.get("/products/categories", params, &categories); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("category %q not found in catalog", slug)
	}
	return &categories[0], nil
}
