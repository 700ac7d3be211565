package octopus

// List is an EmailOctopus mailing list. Fields[0] is always the email address field.
type List struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DoubleOptIn bool           `json:"double_opt_in"`
	Fields      []Field        `json:"fields"`
	Counts      map[string]int `json:"counts"`
	CreatedAt   string         `json:"created_at"`
}

type Field struct {
	Tag      string `json:"tag"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Fallback any    `json:"fallback"`
}

type Contact struct {
	ID           string         `json:"id"`
	EmailAddress string         `json:"email_address"`
	Fields       map[string]any `json:"fields"`
	Tags         []string       `json:"tags"`
	Status       string         `json:"status"`
	CreatedAt    string         `json:"created_at"`
}

// Page is a single page of a paginated response. Paging.Next is empty on the last page.
type Page struct {
	Data   []Contact `json:"data"`
	Paging Paging    `json:"paging"`
}

type Paging struct {
	Next     string `json:"next"`
	Previous string `json:"previous"`
}

type lists struct {
	Data   []List `json:"data"`
	Paging Paging `json:"paging"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
