package hh

import (
	"fmt"
	"net/url"
	"strconv"
)

type Schedule string

const (
	FullDay  Schedule = "fullDay"
	Flexible Schedule = "flexible"
	Remote   Schedule = "remote"
)

type SearchParameters struct {
	Text           string
	AreaID         string
	Salary         int
	Currency       string
	OnlyWithSalary bool
	Schedules      []Schedule
	Page           int
	PerPage        int
}

func (s SearchParameters) Validate() error {

	if s.Text == "" {
		return fmt.Errorf("search text must not be empty")
	}

	if s.Page < 0 {
		return fmt.Errorf("page must be non-negative")
	}

	if s.PerPage < 0 || s.PerPage > 100 {
		return fmt.Errorf("per page must be between 0 and 100")
	}

	return nil
}

func (s SearchParameters) ToUrlParams() url.Values {

	params := url.Values{}
	params.Add("text", s.Text)

	for _, schedule := range s.Schedules {
		params.Add("schedule", string(schedule))
	}

	if s.AreaID != "" {
		params.Add("area", s.AreaID)
	}

	if s.Salary > 0 {
		params.Add("salary", strconv.Itoa(s.Salary))
		if s.Currency != "" {
			params.Add("currency", s.Currency)
		}
	}

	if s.OnlyWithSalary {
		params.Add("only_with_salary", "true")
	}

	params.Add("page", strconv.Itoa(s.Page))
	params.Add("per_page", strconv.Itoa(s.PerPage))

	return params
}
