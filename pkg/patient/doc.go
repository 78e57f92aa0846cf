// Package patient provides the dashboard and shipment-history data shown to a
// signed-in patient. MockSource serves a fixed fixture after a simulated
// network delay.
package patient
