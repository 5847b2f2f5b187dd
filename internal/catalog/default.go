package catalog

import "github.com/wolfman30/pawcare-booking/internal/pricing"

var defaultServices = []Service{
	{ID: 1, Name: "General Health Checkup", Description: "Comprehensive physical examination including weight, temperature, and basic health assessment.", Price: pricing.Dollars(75), DurationMinutes: 30, Category: "Wellness"},
	{ID: 2, Name: "Vaccination", Description: "Essential vaccinations to protect your pet from common diseases.", Price: pricing.Dollars(45), DurationMinutes: 15, Category: "Prevention"},
	{ID: 3, Name: "Dental Cleaning", Description: "Professional dental cleaning under anesthesia to maintain oral health.", Price: pricing.Dollars(120), DurationMinutes: 60, Category: "Dental"},
	{ID: 4, Name: "Blood Work Panel", Description: "Complete blood chemistry panel to assess organ function and overall health.", Price: pricing.Dollars(95), DurationMinutes: 20, Category: "Diagnostics"},
	{ID: 5, Name: "Microchipping", Description: "Permanent identification chip implantation for pet safety and recovery.", Price: pricing.Dollars(35), DurationMinutes: 10, Category: "Safety"},
	{ID: 6, Name: "Spay/Neuter Surgery", Description: "Surgical sterilization procedure performed by experienced veterinarians.", Price: pricing.Dollars(200), DurationMinutes: 120, Category: "Surgery"},
	{ID: 7, Name: "X-Ray Imaging", Description: "Digital radiography for diagnosing bone, joint, and internal organ conditions.", Price: pricing.Dollars(85), DurationMinutes: 25, Category: "Diagnostics"},
	{ID: 8, Name: "Flea & Tick Treatment", Description: "Professional treatment and prevention plan for external parasites.", Price: pricing.Dollars(55), DurationMinutes: 20, Category: "Treatment"},
}

// Default returns the clinic's built-in service catalog.
func Default() *Catalog {
	c, err := New(defaultServices)
	if err != nil {
		panic(err)
	}
	return c
}
