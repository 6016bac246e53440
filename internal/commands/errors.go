package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-seeds/internal/runtimeconfig"
	"github.com/goliatone/go-seeds/internal/seeds"
)

const (
	codeInvalidMessage  = "SEEDS_COMMAND_INVALID"
	codePlantCanceled   = "SEEDS_PLANT_CANCELED"
	codePlantTimeout    = "SEEDS_PLANT_TIMEOUT"
	codeSeedNotFound    = "SEEDS_SEED_NOT_FOUND"
	codeFetchFailed     = "SEEDS_FETCH_FAILED"
	codeExtractFailed   = "SEEDS_EXTRACT_FAILED"
	codeMergeRejected   = "SEEDS_MERGE_REJECTED"
	codeWriteFailed     = "SEEDS_WRITE_FAILED"
	codeAssetCopyFailed = "SEEDS_ASSET_COPY_FAILED"
	codePlantFailed     = "SEEDS_PLANT_FAILED"
)

// failureClass maps a pipeline sentinel to the category and text code reported
// to command callers.
type failureClass struct {
	target   error
	category goerrors.Category
	code     string
	message  string
}

var plantFailures = []failureClass{
	{runtimeconfig.ErrSeedNotFound, goerrors.CategoryNotFound, codeSeedNotFound, "seed is not configured"},
	{seeds.ErrFetch, goerrors.CategoryExternal, codeFetchFailed, "seed source could not be fetched"},
	{seeds.ErrExtraction, goerrors.CategoryBadInput, codeExtractFailed, "seed source could not be extracted"},
	{seeds.ErrIdentityMismatch, goerrors.CategoryConflict, codeMergeRejected, "seed document merge rejected"},
	{seeds.ErrUnknownMergeStrategy, goerrors.CategoryValidation, codeMergeRejected, "seed merge strategy rejected"},
	{seeds.ErrWrite, goerrors.CategoryOperation, codeWriteFailed, "seed document write failed"},
	{seeds.ErrAssetWrite, goerrors.CategoryOperation, codeAssetCopyFailed, "seed asset copy failed"},
}

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "seed command rejected").
		WithTextCode(codeInvalidMessage)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "seed plant timed out").
			WithTextCode(codePlantTimeout)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "seed plant cancelled").
		WithTextCode(codePlantCanceled)
}

// wrapExecuteError tags err with the failure class of the first pipeline
// sentinel it matches. Unclassified errors fall back to the command category.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	for _, class := range plantFailures {
		if errors.Is(err, class.target) {
			return goerrors.Wrap(err, class.category, class.message).WithTextCode(class.code)
		}
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "seed plant failed").
		WithTextCode(codePlantFailed)
}

// TextCode returns the text code attached to a command error, or "" when err
// was not produced by a command handler.
func TextCode(err error) string {
	var wrapped *goerrors.Error
	if errors.As(err, &wrapped) {
		return wrapped.TextCode
	}
	return ""
}
