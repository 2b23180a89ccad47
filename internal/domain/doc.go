// Package domain contains the core business entities, value objects, and
// domain logic of the application: schemas, the records that conform to
// them, and dataset generation jobs. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
package domain
