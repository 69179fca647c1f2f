package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/fieldops_backend/appctx"
)

var (
	ContextKeyMemberMsisdn  = appctx.ContextKeyMemberMsisdn
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyAction        = appctx.ContextKeyAction

	ContextKeySkipOwnerScope = appctx.ContextKeySkipOwnerScope
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetMemberMsisdnInContext(ctx context.Context, msisdn string) context.Context {
	return appctx.Set(ctx, ContextKeyMemberMsisdn, msisdn)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetActionInContext(ctx context.Context, action string) context.Context {
	return appctx.Set(ctx, ContextKeyAction, action)
}

func SetSkipOwnerScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipOwnerScope, skip)
}
