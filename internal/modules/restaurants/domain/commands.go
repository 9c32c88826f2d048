package domain

// Directory stream commands accepted over the websocket.
const (
	CommandList     = "list"
	CommandFeatured = "featured"
	CommandSearch   = "search"
	CommandDetail   = "detail"
	CommandReviews  = "reviews"
	CommandCuisines = "cuisines"
)

// DirectoryCommands lists the commands in the order they are advertised.
var DirectoryCommands = []string{CommandList, CommandFeatured, CommandSearch, CommandDetail, CommandReviews, CommandCuisines}

// GetRestaurantCommand is the payload of the detail and reviews commands.
type GetRestaurantCommand struct {
	ID string `json:"id"`
}
