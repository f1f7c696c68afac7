package oautherr_test

import (
	"errors"
	"fmt"
	"net/http/httptest"

	"github.com/jonwraymond/tokenops/oautherr"
)

func ExampleNew() {
	err := oautherr.New(oautherr.InvalidScope, "Unknown scope \"admin\"\n", oautherr.WithScope("admin"))

	fmt.Println(err.Name())
	fmt.Println(err.Description())
	fmt.Println(err.Status())
	// Output:
	// invalid_scope
	// Unknown scope ?admin??
	// 400
}

func ExampleError_Write() {
	rec := httptest.NewRecorder()
	_ = oautherr.InvalidClientID(oautherr.WithRealm("example")).Write(rec)

	fmt.Println(rec.Code)
	fmt.Println(rec.Header().Get("WWW-Authenticate"))
	// Output:
	// 401
	// Bearer realm="example", error="invalid_client", error_description="Invalid client_id"
}

func ExampleKind() {
	var err error = fmt.Errorf("refresh: %w", oautherr.InvalidGrantValue("refresh token"))

	fmt.Println(errors.Is(err, oautherr.InvalidGrant))
	// Output: true
}
