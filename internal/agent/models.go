package agent

// Property is a named value in an action event, used both for request body
// properties and for path/query parameters.
type Property struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

type MediaContent struct {
	Properties []Property `json:"properties"`
}

type RequestBody struct {
	Content map[string]MediaContent `json:"content"`
}

// ActionEvent is the event an agent runtime sends to an action group.
type ActionEvent struct {
	MessageVersion string       `json:"messageVersion"`
	ActionGroup    string       `json:"actionGroup"`
	APIPath        string       `json:"apiPath"`
	HTTPMethod     string       `json:"httpMethod"`
	Parameters     []Property   `json:"parameters,omitempty"`
	RequestBody    *RequestBody `json:"requestBody,omitempty"`
	SessionID      string       `json:"sessionId,omitempty"`
	InputText      string       `json:"inputText,omitempty"`
}

type ResponseContent struct {
	Body any `json:"body"`
}

type ActionResult struct {
	ActionGroup    string                     `json:"actionGroup"`
	APIPath        string                     `json:"apiPath"`
	HTTPMethod     string                     `json:"httpMethod"`
	HTTPStatusCode int                        `json:"httpStatusCode"`
	ResponseBody   map[string]ResponseContent `json:"responseBody"`
}

// ActionResponse is the envelope returned to the agent runtime.
type ActionResponse struct {
	MessageVersion string       `json:"messageVersion"`
	Response       ActionResult `json:"response"`
}

// SearchResults is the body of a successful /search action.
type SearchResults struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// property returns the first value named name from the JSON request body
// properties, then from the parameters.
func (ev *ActionEvent) property(name string) string {
	if ev.RequestBody != nil {
		for _, p := range ev.RequestBody.Content[jsonMediaType].Properties {
			if p.Name == name {
				return p.Value
			}
		}
	}
	for _, p := range ev.Parameters {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}
