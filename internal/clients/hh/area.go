package hh

// Area is one node of the board's region tree, flattened. The search
// endpoint accepts region ids only, never names.
type Area struct {
	ID   string
	Name string
}

type area struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Name     string  `json:"name"`
	Areas    []area  `json:"areas"`
}
