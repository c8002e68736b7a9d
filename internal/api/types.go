package api

import "time"

// User is the identity record returned by the profile endpoint.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginRequest is the credential payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the freshly issued token pair.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest is the payload for account signup.
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Page is the paginated list envelope the backend wraps collections in.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ParkingLot is a lot summary record.
type ParkingLot struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	Latitude        string `json:"latitude"`
	Longitude       string `json:"longitude"`
	TotalSpaces     int    `json:"total_spaces"`
	AvailableSpaces int    `json:"available_spaces"`
	Status          string `json:"status"`
	HourlyRate      string `json:"hourly_rate"`
}

// ParkingSpace is a single space within a lot.
type ParkingSpace struct {
	ID          int64  `json:"id"`
	SpaceNumber string `json:"space_number"`
	Status      string `json:"status"`
}

// ParkingLotDetail is a lot record including its spaces.
type ParkingLotDetail struct {
	ParkingLot
	Spaces []ParkingSpace `json:"spaces"`
}

// CreateReservationRequest is the payload for booking a space.
type CreateReservationRequest struct {
	ParkingLot   int64  `json:"parking_lot"`
	ParkingSpace int64  `json:"parking_space"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	VehiclePlate string `json:"vehicle_plate"`
	Notes        string `json:"notes,omitempty"`
}

// Reservation is a booking record.
type Reservation struct {
	ID         int64 `json:"id"`
	ParkingLot struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"parking_lot"`
	ParkingSpace struct {
		ID          int64  `json:"id"`
		SpaceNumber string `json:"space_number"`
	} `json:"parking_space"`
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	VehiclePlate string    `json:"vehicle_plate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	TotalCost    string    `json:"total_cost"`
	CreatedAt    time.Time `json:"created_at"`
}

// DailySummary is the admin dashboard overview report.
type DailySummary struct {
	TotalRevenue       float64 `json:"total_revenue"`
	DailyReservations  int     `json:"daily_reservations"`
	ParkingUtilization float64 `json:"parking_utilization"`
	AverageDuration    float64 `json:"average_duration"`
	RevenueChange      float64 `json:"revenue_change"`
	ReservationChange  float64 `json:"reservation_change"`
	UtilizationChange  float64 `json:"utilization_change"`
	DurationChange     float64 `json:"duration_change"`
}

// channelTokenResponse carries the short-lived realtime credential.
type channelTokenResponse struct {
	Access string `json:"access"`
}

// refreshRequest is the payload for the token refresh exchange.
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse carries the replacement access token.
type refreshResponse struct {
	Access string `json:"access"`
}
