package hh

// Vacancy is the board's native search-result shape; only the fields the
// normalized posting needs are decoded.
type Vacancy struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Url      string      `json:"alternate_url"`
	Employer Employer    `json:"employer"`
	Salary   *Salary     `json:"salary"`
	Area     VacancyArea `json:"area"`
	Snippet  Snippet     `json:"snippet"`
}

type Employer struct {
	Name string `json:"name"`
}

type Salary struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Currency string `json:"currency"`
}

type VacancyArea struct {
	Name string `json:"name"`
}

type Snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}
