package dto

type DispatchStatistics struct {
	TotalApprovedFiles int `json:"total_approved_files"`
	ReadyForDispatch   int `json:"ready_for_dispatch"`
	NeedsManualReview  int `json:"needs_manual_review"`
}

type DispatchRunResponse struct {
	Dispatched int                `json:"dispatched"`
	Bills      []DocumentResponse `json:"bills"`
}
