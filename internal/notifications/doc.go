// Package notifications delivers maintenance events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when notifications are disabled. Only
// events a person would act on produce a push; chatty events such as note
// additions are accepted and dropped.
package notifications
