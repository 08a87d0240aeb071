package providers

// Provider is a bookable business. Reference data for the MVP: provisioned
// by the seed tool, read-only at request time.
type Provider struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	ServiceType string  `json:"serviceType"`
	Location    string  `json:"location"`
	Rating      float64 `json:"rating"`
}

// SeedProviders is the demo directory used by cmd/seed and the in-memory
// repository.
func SeedProviders() []Provider {
	return []Provider{
		{Name: "Smile Dental Clinic", Phone: "+15551234567", ServiceType: "dentist", Location: "New York, NY", Rating: 4.8},
		{Name: "City Hair Salon", Phone: "+15559876543", ServiceType: "salon", Location: "New York, NY", Rating: 4.5},
		{Name: "QuickFix Plumbing", Phone: "+15555551234", ServiceType: "plumber", Location: "New York, NY", Rating: 4.7},
		{Name: "Bright Eyes Optometry", Phone: "+15558887777", ServiceType: "optometrist", Location: "New York, NY", Rating: 4.9},
		{Name: "Elite Auto Repair", Phone: "+15552223333", ServiceType: "mechanic", Location: "New York, NY", Rating: 4.6},
	}
}
