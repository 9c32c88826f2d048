package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	authtransport "mesaYaBooking/internal/modules/auth/interface"
	"mesaYaBooking/internal/modules/restaurants/application/usecase"
	"mesaYaBooking/internal/modules/restaurants/domain"
	"mesaYaBooking/internal/shared/httputil"
)

var directoryErrors = httputil.NewErrorMapper().
	WithMapping(authdomain.ErrNotSignedIn, http.StatusUnauthorized, "sign in to continue").
	WithMapping(authdomain.ErrForbidden, http.StatusForbidden, "forbidden").
	WithMapping(domain.ErrRestaurantNotFound, http.StatusNotFound, "restaurant not found").
	WithMapping(domain.ErrMissingID, http.StatusBadRequest, "missing restaurant id").
	WithMapping(domain.ErrEmptyPatch, http.StatusBadRequest, "nothing to update")

func NewListRestaurantsHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		restaurants, err := uc.List(c.Request().Context())
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"restaurants": restaurants})
	}
}

func NewFeaturedRestaurantsHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		restaurants, err := uc.Featured(c.Request().Context())
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"restaurants": restaurants})
	}
}

// NewSearchRestaurantsHTTPHandler reads the cuisine, priceRange and city query parameters.
func NewSearchRestaurantsHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		restaurants, err := uc.Search(c.Request().Context(),
			domain.WithCuisine(c.QueryParam("cuisine")),
			domain.WithPriceRange(c.QueryParam("priceRange")),
			domain.WithCity(c.QueryParam("city")),
		)
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"restaurants": restaurants})
	}
}

func NewCuisinesHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		cuisines, err := uc.CuisineTypes(c.Request().Context())
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"cuisines": cuisines})
	}
}

func NewGetRestaurantHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		restaurant, err := uc.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, restaurant)
	}
}

func NewCreateRestaurantHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req domain.Restaurant
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		created, err := uc.Create(c.Request().Context(), authtransport.SessionFrom(c), req)
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func NewUpdateRestaurantHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.Patch
		if err := c.Bind(&patch); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		updated, err := uc.Update(c.Request().Context(), authtransport.SessionFrom(c), c.Param("id"), patch)
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func NewDeleteRestaurantHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := uc.Delete(c.Request().Context(), authtransport.SessionFrom(c), c.Param("id")); err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func NewListReviewsHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		reviews, err := uc.ListReviews(c.Request().Context(), c.Param("id"))
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"reviews": reviews})
	}
}

func NewAddReviewHTTPHandler(uc *usecase.DirectoryUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req domain.Review
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		review, err := uc.AddReview(c.Request().Context(), authtransport.SessionFrom(c), c.Param("id"), req)
		if err != nil {
			return directoryErrors.HTTPError(err)
		}
		return c.JSON(http.StatusCreated, review)
	}
}

// RegisterRoutes mounts the directory endpoints on the /api group.
func RegisterRoutes(api *echo.Group, uc *usecase.DirectoryUseCase) {
	signedIn := authtransport.RequireSignedIn()

	api.GET("/restaurants", NewListRestaurantsHTTPHandler(uc))
	api.GET("/restaurants/featured", NewFeaturedRestaurantsHTTPHandler(uc))
	api.GET("/restaurants/search", NewSearchRestaurantsHTTPHandler(uc))
	api.GET("/restaurants/cuisines", NewCuisinesHTTPHandler(uc))
	api.GET("/restaurants/:id", NewGetRestaurantHTTPHandler(uc))
	api.POST("/restaurants", NewCreateRestaurantHTTPHandler(uc), signedIn)
	api.PATCH("/restaurants/:id", NewUpdateRestaurantHTTPHandler(uc), signedIn)
	api.DELETE("/restaurants/:id", NewDeleteRestaurantHTTPHandler(uc), signedIn)
	api.GET("/restaurants/:id/reviews", NewListReviewsHTTPHandler(uc))
	api.POST("/restaurants/:id/reviews", NewAddReviewHTTPHandler(uc), signedIn)
}
