// Package httpclient builds the requests chaosfire sends and buffers the
// responses so a chaos strategy can stand in for them.
//
//	builder, err := httpclient.NewRequestBuilder(cfg)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx)
//	resp, err := httpclient.Fetch(httpclient.NewClient(cfg.Timeout), req)
//	if err == nil {
//		err = resp.CheckStatus()
//	}
//
// [SyntheticResponse] produces the [Response] returned by result injection.
package httpclient
