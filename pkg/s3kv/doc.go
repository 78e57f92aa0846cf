// Package s3kv implements kvstore.Store on Amazon S3 and S3-compatible
// services such as MinIO. Every key is one object under Config.Prefix.
//
//	store, err := s3kv.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	_ = store.Set(ctx, "user", `{"email":"a@x.com","name":"A"}`)
//
// Pass WithClient to supply a pre-configured or mock client.
package s3kv
