package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	UserExists(ctx context.Context, id int64) (bool, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

type BookingRepository interface {
	// CreateBookingIfFree inserts the booking unless a WAITING or APPROVED
	// booking of the same item overlaps its window, in which case it returns
	// ErrNotAvailable. Check and insert are atomic.
	CreateBookingIfFree(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// UpdateBookingStatus moves a booking from one status to another and
	// returns ErrNotAvailable when the stored status is no longer from.
	UpdateBookingStatus(ctx context.Context, id int64, from, to models.BookingStatus) error
	FindBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequester(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error)
	GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error)
}

// Repository is the full storage port implemented by every backend.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository
	Close() error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	AddBooking(ctx context.Context, userID int64, req models.BookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error)
	ListBookingsForBooker(ctx context.Context, userID int64, state string, page models.Page) ([]*models.Booking, error)
	ListBookingsForOwner(ctx context.Context, userID int64, state string, page models.Page) ([]*models.Booking, error)
	ApproveBooking(ctx context.Context, userID, bookingID int64, approved bool) (*models.Booking, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error)
	ListOwnerItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	DeleteItem(ctx context.Context, ownerID, itemID int64) error
	AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error)
}

type RequestService interface {
	AddRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error)
	GetRequest(ctx context.Context, userID, requestID int64) (*models.RequestDetails, error)
	ListOwnRequests(ctx context.Context, userID int64, page models.Page) ([]*models.RequestDetails, error)
	ListOtherRequests(ctx context.Context, userID int64, page models.Page) ([]*models.RequestDetails, error)
}
