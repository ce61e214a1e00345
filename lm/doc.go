/*
Package lm fits linear models by ordinary least squares.

The design is provided as a design.Matrix, usually built from a
categorical predictor by design.BuildMatrix or design.Spec.  Fitting uses
a QR factorization of the design, the coefficient covariance is the
residual variance times (X'X)^-1, and the residual degrees of freedom are
the number of observations minus the number of columns.  A design that is
not of full column rank is reported as a *statmodel.RankDeficientError,
no columns are dropped.
*/

package lm
