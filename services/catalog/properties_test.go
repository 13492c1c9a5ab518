package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/schema"
)

func bindPropertyRequest(t *testing.T, body string) (PropertyRequest, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req PropertyRequest
	err := c.ShouldBindJSON(&req)
	return req, err
}

func propertyBody(price string) string {
	return fmt.Sprintf(`{"category_id":%q,"title":"Starter","price":%s,"location":"Northside"}`,
		uuid.New(), price)
}

func TestPropertyRequestRejectsNonPositivePrice(t *testing.T) {
	for _, price := range []string{"-500000", "0"} {
		_, err := bindPropertyRequest(t, propertyBody(price))
		assert.Error(t, err, "price %s must not bind", price)
	}
}

func TestPropertyRequestAcceptsPositivePrice(t *testing.T) {
	req, err := bindPropertyRequest(t, propertyBody("200000"))
	require.NoError(t, err)
	assert.Equal(t, 200000.0, req.Price)
}

// A category without a configured schema accepts no listings at all; the
// schema has to be defined before properties can be filed under it.
func TestCheckAttributesFailsClosedWithoutSchema(t *testing.T) {
	bare := &models.Category{Name: "Land"}

	var verr *schema.ValidationError
	require.ErrorAs(t, checkAttributes(nil, bare), &verr)
	assert.Equal(t, schema.KindSchemaNotConfigured, verr.Kind)

	assert.Error(t, checkAttributes(map[string]any{"acreage": 12}, bare))
}

func TestCheckAttributesAgainstConfiguredSchema(t *testing.T) {
	category := &models.Category{
		Name: "Residential",
		AttributeSchema: schema.Schema{
			{Name: "bedrooms", Type: schema.TypeNumber, Required: true},
		},
	}

	assert.NoError(t, checkAttributes(map[string]any{"bedrooms": 3}, category))
	assert.Error(t, checkAttributes(nil, category))
	assert.Error(t, checkAttributes(map[string]any{"bedrooms": "three"}, category))
}
