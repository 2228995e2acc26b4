package impl

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
)

const (
	messageInvalidJSON  = "Invalid JSON body"
	messagePositionData = "positionData is required and must be an object"

	maxBodyBytes = 1 << 20
)

// readBody decodes a JSON object. Field types are checked by the decoders
// below so that every problem can be reported by name.
func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body == nil {
		return nil, false
	}
	return body, true
}

func decodeCreateRequest(body map[string]any) (annotation.CreateRequest, error) {
	details := []string{}
	request := annotation.CreateRequest{}

	if documentID, ok := body["documentId"].(string); ok && documentID != "" {
		request.DocumentID = documentID
	} else {
		details = append(details, annotation.MessageDocumentIDRequired)
	}

	if text, ok := nonBlankString(body["selectedText"]); ok {
		request.SelectedText = text
	} else {
		details = append(details, annotation.MessageSelectedText)
	}

	if comment, ok := nonBlankString(body["comment"]); ok {
		request.Comment = comment
	} else {
		details = append(details, annotation.MessageComment)
	}

	position, message := decodePosition(body["positionData"])
	if message != "" {
		details = append(details, message)
	}
	request.Position = position

	if raw, present := body["isHighPriority"]; present {
		if high, ok := raw.(bool); ok {
			request.IsHighPriority = high
		} else {
			details = append(details, annotation.MessageHighPriority)
		}
	}

	if len(details) > 0 {
		return annotation.CreateRequest{}, &annotation.ValidationError{Message: annotation.MessageValidationFailed, Details: details}
	}
	return request.Normalized(), nil
}

func decodeUpdateRequest(body map[string]any) (annotation.UpdateRequest, error) {
	request := annotation.UpdateRequest{}

	if raw, present := body["comment"]; present {
		comment, ok := nonBlankString(raw)
		if !ok {
			return annotation.UpdateRequest{}, &annotation.ValidationError{Message: annotation.MessageCommentNonEmpty}
		}
		request.Comment = &comment
	}

	if raw, present := body["isHighPriority"]; present {
		high, ok := raw.(bool)
		if !ok {
			return annotation.UpdateRequest{}, &annotation.ValidationError{Message: annotation.MessageHighPriority}
		}
		request.IsHighPriority = &high
	}

	if err := request.Validate(); err != nil {
		return annotation.UpdateRequest{}, err
	}
	return request.Normalized(), nil
}

func decodePosition(raw any) (annotation.Position, string) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return annotation.Position{}, messagePositionData
	}

	page, ok := fields["pageNumber"].(float64)
	if !ok || page != math.Trunc(page) || page < 1 || page > math.MaxInt32 {
		return annotation.Position{}, annotation.MessagePageNumber
	}

	items, ok := fields["rects"].([]any)
	if !ok || len(items) == 0 {
		return annotation.Position{}, annotation.MessageRects
	}

	rects := make([]geometry.Rect, 0, len(items))
	for _, item := range items {
		rect, ok := decodeRect(item)
		if !ok {
			return annotation.Position{}, annotation.MessageRect
		}
		rects = append(rects, rect)
	}
	return annotation.Position{PageNumber: int(page), Rects: rects}, ""
}

func decodeRect(raw any) (geometry.Rect, bool) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return geometry.Rect{}, false
	}
	values := [4]float64{}
	for i, key := range []string{"x", "y", "width", "height"} {
		value, ok := fields[key].(float64)
		if !ok || value < 0 {
			return geometry.Rect{}, false
		}
		values[i] = value
	}
	return geometry.Rect{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, true
}

func nonBlankString(raw any) (string, bool) {
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
