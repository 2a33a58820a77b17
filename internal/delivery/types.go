package delivery

import "time"

// Zone is a configured delivery-eligibility rule. Region/City left empty act
// as wildcards: empty region+city matches the whole country, a set region
// with empty city matches every city in that region. CountryKey is the
// normalized country and is the table's partition key so lookups stay a
// single Query.
type Zone struct {
	CountryKey string    `dynamodbav:"country_key"` // PK, normalized country
	ZoneID     string    `dynamodbav:"zone_id"`     // SK
	Country    string    `dynamodbav:"country"`     // display form
	Region     string    `dynamodbav:"region,omitempty"`
	City       string    `dynamodbav:"city,omitempty"`
	Active     bool      `dynamodbav:"active"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

// Location is a candidate shipping destination. Country is required, region
// and city are optional.
type Location struct {
	Country string
	Region  string
	City    string
}
