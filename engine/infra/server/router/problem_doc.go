package router

// ProblemDocument models the RFC 7807 error envelope written by RespondProblem.
type ProblemDocument struct {
	Type     string `json:"type,omitempty"     example:"about:blank"`
	Error    string `json:"error"              example:"Bad Request"`
	Status   int    `json:"status"             example:"400"`
	Details  string `json:"details,omitempty"  example:"guidance: invalid query: question is required"`
	Instance string `json:"instance,omitempty" example:"/ask"`
	Code     string `json:"code,omitempty"     example:"invalid_input"`
}
