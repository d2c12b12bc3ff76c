package runner

import "github.com/use-agent/pagecheck/models"

// Classify turns an executor result or error into the Outcome for item.
// A failed operation never carries a result. A content validation that ran
// fine but found an unusable page keeps its result and is not a success.
func Classify(item models.WorkItem, result models.OperationResult, err error) models.Outcome {
	out := models.Outcome{
		Label:     item.Label,
		Target:    item.Target,
		Operation: item.Operation,
	}

	if err != nil {
		out.Error = models.AsRunError(err).ToDetail()
		return out
	}
	if result == nil {
		out.Error = &models.ErrorDetail{
			Code:    models.ErrCodeInternal,
			Message: "operation produced no result",
		}
		return out
	}

	out.Result = result
	switch r := result.(type) {
	case *models.ValidationResult:
		out.Success = r.Acceptable()
	case models.ValidationResult:
		out.Success = r.Acceptable()
	default:
		out.Success = true
	}
	return out
}
